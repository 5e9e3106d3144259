package models

// ScoreCeiling is the canonical score scale. The remote evaluator reports
// 0–100; the dispatcher converts to this scale before an Answer is built.
const ScoreCeiling = 10.0

type ConfidenceLabel string

const (
	ConfidenceLow    ConfidenceLabel = "Low"
	ConfidenceMedium ConfidenceLabel = "Medium"
	ConfidenceHigh   ConfidenceLabel = "High"
)

// ConfidenceForScore maps a 0–10 score to its delivery-confidence label.
func ConfidenceForScore(score float64) ConfidenceLabel {
	switch {
	case score > 8:
		return ConfidenceHigh
	case score > 5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Answer is the scored result of one recorded response to one question.
// It is immutable once produced. A Skipped answer holds the question text
// only and is excluded from score aggregation.
type Answer struct {
	QuestionText    string          `json:"question"`
	Transcript      string          `json:"transcript"`
	FeedbackText    string          `json:"feedback"`
	Score           float64         `json:"score"`
	FillerCount     int             `json:"fillerCount"`
	KeywordsFound   []string        `json:"keywordsFound,omitempty"`
	ConfidenceLabel ConfidenceLabel `json:"confidence"`
	DurationSeconds float64         `json:"duration"`
	AudioReference  string          `json:"audioRef,omitempty"`
	Skipped         bool            `json:"skipped,omitempty"`
}
