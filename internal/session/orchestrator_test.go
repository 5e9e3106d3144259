package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/capture"
	"github.com/sai-suraj143/Intelli-Prep/internal/models"
	"github.com/sai-suraj143/Intelli-Prep/internal/session"
	"github.com/sai-suraj143/Intelli-Prep/internal/topics"
)

type scriptedAnalyzer struct {
	scores []float64
	calls  int
	block  chan struct{} // when set, Analyze waits until closed
}

func (a *scriptedAnalyzer) Analyze(ctx context.Context, buf capture.Buffer, questionText string) models.Answer {
	if a.block != nil {
		<-a.block
	}
	score := a.scores[a.calls%len(a.scores)]
	a.calls++
	return models.Answer{
		QuestionText:    questionText,
		Transcript:      "scripted transcript",
		FeedbackText:    "scripted feedback",
		Score:           score,
		ConfidenceLabel: models.ConfidenceForScore(score),
		DurationSeconds: 30,
		AudioReference:  buf.ID.String(),
	}
}

type denyingDevice struct{}

func (denyingDevice) Acquire(ctx context.Context) (capture.Stream, error) {
	return nil, capture.ErrPermissionDenied
}

type recordingEvents struct {
	answers       []models.Answer
	completed     []models.SessionResult
	cancelled     int
	captureErrors []error
}

func (e *recordingEvents) AnswerRecorded(a models.Answer) { e.answers = append(e.answers, a) }
func (e *recordingEvents) SessionCompleted(r models.SessionResult) {
	e.completed = append(e.completed, r)
}
func (e *recordingEvents) SessionCancelled()      { e.cancelled++ }
func (e *recordingEvents) CaptureError(err error) { e.captureErrors = append(e.captureErrors, err) }

func dsaTopic() topics.Topic {
	return topics.Topic{
		ID:   "dsa",
		Name: "Data Structures & Algorithms",
		Questions: []string{
			"Explain the difference between an array and a linked list.",
			"How does a hash map work?",
		},
	}
}

func answerCurrent(t *testing.T, orc *session.Orchestrator) (models.Answer, *models.SessionResult) {
	t.Helper()
	if err := orc.BeginAnswer(context.Background()); err != nil {
		t.Fatalf("BeginAnswer failed: %v", err)
	}
	if err := orc.WriteAudio([]byte("blob")); err != nil {
		t.Fatalf("WriteAudio failed: %v", err)
	}
	ans, res, err := orc.EndAnswer(context.Background())
	if err != nil {
		t.Fatalf("EndAnswer failed: %v", err)
	}
	return ans, res
}

func TestSessionCompletesWithMeanScore(t *testing.T) {
	analyzer := &scriptedAnalyzer{scores: []float64{8, 10}}
	events := &recordingEvents{}
	orc := session.New(dsaTopic(), capture.NewSinkDevice(), analyzer, events, zap.NewNop())

	question, index, total := orc.CurrentQuestion()
	if index != 0 || total != 2 || question == "" {
		t.Fatalf("unexpected initial state: %q %d/%d", question, index, total)
	}

	ans, res := answerCurrent(t, orc)
	if res != nil {
		t.Fatal("result must not be produced before the final question")
	}
	if ans.Score != 8 {
		t.Fatalf("expected first score 8, got %v", ans.Score)
	}
	if orc.Phase() != session.PhaseAwaitingAnswer {
		t.Fatalf("expected AwaitingAnswer after first answer, got %s", orc.Phase())
	}

	_, res = answerCurrent(t, orc)
	if res == nil {
		t.Fatal("expected a session result after the final question")
	}
	if res.OverallScore != 9 {
		t.Fatalf("expected overall score 9, got %v", res.OverallScore)
	}
	if len(res.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(res.Answers))
	}
	if res.OverallScore < 0 || res.OverallScore > models.ScoreCeiling {
		t.Fatalf("overall score out of range: %v", res.OverallScore)
	}
	if res.TotalDurationSeconds < 0 {
		t.Fatalf("negative session duration: %v", res.TotalDurationSeconds)
	}
	if orc.Status() != session.StatusCompleted {
		t.Fatalf("expected Completed, got %s", orc.Status())
	}

	if len(events.answers) != 2 || len(events.completed) != 1 {
		t.Fatalf("unexpected events: %d answers, %d completions", len(events.answers), len(events.completed))
	}
}

func TestPermissionDeniedKeepsSessionAlive(t *testing.T) {
	events := &recordingEvents{}
	orc := session.New(dsaTopic(), denyingDevice{}, &scriptedAnalyzer{scores: []float64{5}}, events, zap.NewNop())

	err := orc.BeginAnswer(context.Background())
	if !errors.Is(err, capture.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if orc.Status() != session.StatusActive || orc.Phase() != session.PhaseAwaitingAnswer {
		t.Fatalf("session must stay in AwaitingAnswer, got %s/%s", orc.Status(), orc.Phase())
	}
	if len(events.captureErrors) != 1 {
		t.Fatalf("expected exactly one capture error event, got %d", len(events.captureErrors))
	}
	if len(events.answers) != 0 {
		t.Fatal("no answer may be appended on a denied attempt")
	}

	// Each attempt reports once.
	_ = orc.BeginAnswer(context.Background())
	if len(events.captureErrors) != 2 {
		t.Fatalf("expected one capture error per attempt, got %d", len(events.captureErrors))
	}
}

func TestSecondBeginAnswerIsIgnoredWhileRecording(t *testing.T) {
	orc := session.New(dsaTopic(), capture.NewSinkDevice(), &scriptedAnalyzer{scores: []float64{5}}, nil, zap.NewNop())

	if err := orc.BeginAnswer(context.Background()); err != nil {
		t.Fatalf("BeginAnswer failed: %v", err)
	}
	if err := orc.BeginAnswer(context.Background()); err != nil {
		t.Fatalf("second BeginAnswer must be ignored, got %v", err)
	}
	if _, _, err := orc.EndAnswer(context.Background()); err != nil {
		t.Fatalf("EndAnswer failed: %v", err)
	}
}

func TestCancelDuringProcessing(t *testing.T) {
	analyzer := &scriptedAnalyzer{scores: []float64{5}, block: make(chan struct{})}
	events := &recordingEvents{}
	orc := session.New(dsaTopic(), capture.NewSinkDevice(), analyzer, events, zap.NewNop())

	if err := orc.BeginAnswer(context.Background()); err != nil {
		t.Fatalf("BeginAnswer failed: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		_, _, err := orc.EndAnswer(context.Background())
		done <- err
	}()

	// Wait for the orchestrator to enter Processing, then cancel.
	deadline := time.After(time.Second)
	for orc.Phase() != session.PhaseProcessing {
		select {
		case <-deadline:
			t.Fatal("orchestrator never entered Processing")
		case <-time.After(time.Millisecond):
		}
	}
	if err := orc.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	close(analyzer.block)

	if err := <-done; !errors.Is(err, session.ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished from cancelled EndAnswer, got %v", err)
	}
	if orc.Status() != session.StatusCancelled {
		t.Fatalf("expected Cancelled, got %s", orc.Status())
	}
	if len(events.completed) != 0 {
		t.Fatal("a cancelled session must not produce a result")
	}
	if events.cancelled != 1 {
		t.Fatalf("expected one cancellation event, got %d", events.cancelled)
	}
}

func TestCancelReleasesOpenCapture(t *testing.T) {
	orc := session.New(dsaTopic(), capture.NewSinkDevice(), &scriptedAnalyzer{scores: []float64{5}}, nil, zap.NewNop())

	if err := orc.BeginAnswer(context.Background()); err != nil {
		t.Fatalf("BeginAnswer failed: %v", err)
	}
	if err := orc.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := orc.Cancel(); !errors.Is(err, session.ErrSessionFinished) {
		t.Fatalf("second Cancel: expected ErrSessionFinished, got %v", err)
	}
	if _, _, err := orc.EndAnswer(context.Background()); !errors.Is(err, session.ErrSessionFinished) {
		t.Fatalf("EndAnswer after Cancel: expected ErrSessionFinished, got %v", err)
	}
}

func TestSkipRecordsTaggedAnswer(t *testing.T) {
	analyzer := &scriptedAnalyzer{scores: []float64{8}}
	orc := session.New(dsaTopic(), capture.NewSinkDevice(), analyzer, nil, zap.NewNop())

	ans, res, err := orc.Skip()
	if err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if res != nil {
		t.Fatal("skip of a non-final question must not complete the session")
	}
	if !ans.Skipped || ans.QuestionText != dsaTopic().Questions[0] {
		t.Fatalf("skip must return the recorded answer, got %+v", ans)
	}
	_, index, _ := orc.CurrentQuestion()
	if index != 1 {
		t.Fatalf("expected index 1 after skip, got %d", index)
	}

	_, res = answerCurrent(t, orc)
	if res == nil {
		t.Fatal("expected a session result")
	}
	// Both questions are accounted for, but only the scored answer
	// feeds the mean.
	if len(res.Answers) != 2 {
		t.Fatalf("expected 2 recorded answers, got %d", len(res.Answers))
	}
	if !res.Answers[0].Skipped {
		t.Fatal("first answer must be tagged as skipped")
	}
	if res.OverallScore != 8 {
		t.Fatalf("skipped answers must not feed aggregation, got overall %v", res.OverallScore)
	}
	if res.ScoredAnswers() != 1 {
		t.Fatalf("expected 1 scored answer, got %d", res.ScoredAnswers())
	}
}

func TestSkipWhileRecordingIsRejected(t *testing.T) {
	orc := session.New(dsaTopic(), capture.NewSinkDevice(), &scriptedAnalyzer{scores: []float64{5}}, nil, zap.NewNop())
	if err := orc.BeginAnswer(context.Background()); err != nil {
		t.Fatalf("BeginAnswer failed: %v", err)
	}
	if _, _, err := orc.Skip(); !errors.Is(err, session.ErrNotAwaiting) {
		t.Fatalf("expected ErrNotAwaiting, got %v", err)
	}
}
