package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/cache"
	"github.com/sai-suraj143/Intelli-Prep/internal/models"
	"github.com/sai-suraj143/Intelli-Prep/internal/store"
)

// ProgressService applies a completed session to the user's persisted
// record: the topic's answered-question count grows by the number of
// scored answers and the practice hours by the session's wall-clock
// time. Cancelled sessions never reach this path.
type ProgressService struct {
	log   *zap.Logger
	store store.UserStore
	cache cache.SessionCache
}

func NewProgressService(userStore store.UserStore, sessionCache cache.SessionCache, log *zap.Logger) *ProgressService {
	return &ProgressService{log: log, store: userStore, cache: sessionCache}
}

// RecordCompletion mutates and persists the user record, then
// refreshes the session cache so a reload sees the new totals. The
// updated record is returned.
func (s *ProgressService) RecordCompletion(ctx context.Context, user models.UserRecord, res models.SessionResult) (*models.UserRecord, error) {
	progress := user.ProgressMap()
	progress[res.TopicID] += res.ScoredAnswers()
	user.SetProgress(progress)
	user.TotalHours += res.TotalDurationSeconds / 3600

	if err := s.store.Upsert(ctx, user); err != nil {
		return nil, err
	}
	if err := s.cache.Save(ctx, user); err != nil {
		// The store already holds the truth; a stale cache slot only
		// costs a re-login after restart.
		s.log.Warn("failed to refresh session cache", zap.Error(err))
	}

	s.log.Info("session progress recorded",
		zap.String("email", user.Email),
		zap.String("topic", res.TopicID),
		zap.Int("answered", res.ScoredAnswers()),
		zap.Float64("overall_score", res.OverallScore))
	return &user, nil
}
