package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/sai-suraj143/Intelli-Prep/internal/models"
)

// slotKey is the fixed name of the single current-user slot.
const slotKey = "intelli_user"

// ErrNoActiveUser means the slot is empty: nobody is logged in, or the
// slot was cleared on logout.
var ErrNoActiveUser = errors.New("cache: no active user")

// SessionCache holds the serialized current-user record so an active
// identity survives a process restart. It is a pure cache; the user
// store stays authoritative.
type SessionCache interface {
	Save(ctx context.Context, user models.UserRecord) error
	Load(ctx context.Context) (*models.UserRecord, error)
	Clear(ctx context.Context) error
}

// MemoryCache keeps the slot in process memory. Used in tests and as
// the fallback when no Redis address is configured.
type MemoryCache struct {
	mu   sync.Mutex
	user *models.UserRecord
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{} }

func (c *MemoryCache) Save(ctx context.Context, user models.UserRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = &user
	return nil
}

func (c *MemoryCache) Load(ctx context.Context) (*models.UserRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil, ErrNoActiveUser
	}
	user := *c.user
	return &user, nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	return nil
}
