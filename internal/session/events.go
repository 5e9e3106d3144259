package session

import (
	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/models"
)

// LoggingEvents is the default host-event sink: it mirrors the
// orchestrator's lifecycle into the structured log. Persistence of a
// completed session is driven by the handler that receives the
// SessionResult, not here.
type LoggingEvents struct {
	Log *zap.Logger
}

func (e LoggingEvents) AnswerRecorded(ans models.Answer) {
	e.Log.Info("answer recorded",
		zap.String("question", ans.QuestionText),
		zap.Float64("score", ans.Score),
		zap.Int("fillers", ans.FillerCount),
		zap.Bool("skipped", ans.Skipped))
}

func (e LoggingEvents) SessionCompleted(res models.SessionResult) {
	e.Log.Info("session completed",
		zap.String("topic", res.TopicID),
		zap.Float64("overall_score", res.OverallScore),
		zap.Int("answers", len(res.Answers)),
		zap.Float64("duration_seconds", res.TotalDurationSeconds))
}

func (e LoggingEvents) SessionCancelled() {
	e.Log.Info("session cancelled")
}

func (e LoggingEvents) CaptureError(err error) {
	e.Log.Warn("capture error", zap.Error(err))
}
