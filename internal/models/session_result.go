package models

import "time"

// SessionResult is the immutable summary handed off when a session
// completes. OverallScore is the mean of the scored answers on the
// same 0–10 scale; TotalDurationSeconds is wall-clock from session
// start to completion, independent of per-answer durations.
type SessionResult struct {
	TopicID              string    `json:"topicId"`
	CompletedAt          time.Time `json:"completedAt"`
	OverallScore         float64   `json:"overallScore"`
	Answers              []Answer  `json:"answers"`
	TotalDurationSeconds float64   `json:"totalDuration"`
}

// ScoredAnswers counts the answers that carry a score, i.e. everything
// that was not skipped.
func (r SessionResult) ScoredAnswers() int {
	n := 0
	for _, a := range r.Answers {
		if !a.Skipped {
			n++
		}
	}
	return n
}
