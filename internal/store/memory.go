package store

import (
	"context"
	"sync"

	"github.com/sai-suraj143/Intelli-Prep/internal/models"
)

// MemoryStore is an in-memory UserStore with the same semantics as the
// database-backed one. It exists so the orchestrator and handlers can
// be exercised without a database.
type MemoryStore struct {
	mu    sync.Mutex
	order []string
	users map[string]models.UserRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]models.UserRecord)}
}

func (s *MemoryStore) GetAll(ctx context.Context) ([]models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.UserRecord, 0, len(s.order))
	for _, email := range s.order {
		out = append(out, s.users[email])
	}
	return out, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) FindByCredentials(ctx context.Context, email, password string) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok || !verifySecret(user.PasswordSecret, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, rec models.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[rec.Email]; !ok {
		s.order = append(s.order, rec.Email)
	}
	s.users[rec.Email] = rec
	return nil
}

func (s *MemoryStore) Register(ctx context.Context, name, email, password string) (*models.UserRecord, error) {
	// Hash outside the lock; bcrypt is deliberately slow.
	hashed, err := hashSecret(password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return nil, ErrDuplicateRegistration
	}
	rec := newRecord(name, email, hashed)
	s.order = append(s.order, email)
	s.users[email] = rec
	return &rec, nil
}
