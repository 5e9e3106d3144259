package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/capture"
	"github.com/sai-suraj143/Intelli-Prep/internal/topics"
)

// ErrNoSession means the user has no active session to act on.
var ErrNoSession = errors.New("session: no active session")

// Manager hands out at most one orchestrator per user. Starting a new
// session while one is active cancels the old one first, which keeps
// the one-open-capture discipline intact across restarts of the flow.
type Manager struct {
	log      *zap.Logger
	catalog  *topics.Catalog
	analyzer Analyzer
	events   Events

	mu     sync.Mutex
	byUser map[string]*Orchestrator
}

func NewManager(catalog *topics.Catalog, analyzer Analyzer, events Events, log *zap.Logger) *Manager {
	return &Manager{
		log:      log,
		catalog:  catalog,
		analyzer: analyzer,
		events:   events,
		byUser:   make(map[string]*Orchestrator),
	}
}

// Start opens a fresh session on the given topic for the user. Each
// session gets its own capture device.
func (m *Manager) Start(email, topicID string) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.byUser[email]; ok && old.Status() == StatusActive {
		if err := old.Cancel(); err != nil {
			m.log.Warn("cancelling superseded session failed", zap.Error(err))
		}
	}
	topic := m.catalog.Get(topicID)
	orc := New(topic, capture.NewSinkDevice(), m.analyzer, m.events, m.log)
	m.byUser[email] = orc
	m.log.Info("session started",
		zap.String("email", email),
		zap.String("topic", topic.ID),
		zap.Int("questions", len(topic.Questions)))
	return orc
}

// Get returns the user's active session.
func (m *Manager) Get(email string) (*Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orc, ok := m.byUser[email]
	if !ok || orc.Status() != StatusActive {
		return nil, ErrNoSession
	}
	return orc, nil
}

// Drop forgets the user's session once it has reached a terminal state.
func (m *Manager) Drop(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, email)
}
