package store

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sai-suraj143/Intelli-Prep/internal/models"
)

var (
	// ErrDuplicateRegistration is returned by Register when the email
	// is already taken. The store is left unchanged.
	ErrDuplicateRegistration = errors.New("store: email already registered")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so callers cannot probe which emails exist.
	ErrInvalidCredentials = errors.New("store: invalid email or password")

	// ErrNotFound is returned by FindByEmail for an unknown email.
	ErrNotFound = errors.New("store: user not found")
)

// UserStore is the persistence boundary for user records. Every
// mutation is written through to the backing medium before the call
// returns. The read-modify-write upsert is not protected against
// concurrent independent writers; last write wins.
type UserStore interface {
	GetAll(ctx context.Context) ([]models.UserRecord, error)
	FindByEmail(ctx context.Context, email string) (*models.UserRecord, error)
	FindByCredentials(ctx context.Context, email, password string) (*models.UserRecord, error)
	Upsert(ctx context.Context, rec models.UserRecord) error
	Register(ctx context.Context, name, email, password string) (*models.UserRecord, error)
}

// hashSecret applies the one-way hash at the store boundary. The
// record still models exactly one secret field; only the stored form
// differs from what the user typed.
func hashSecret(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func verifySecret(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// newRecord builds the default record created by registration.
func newRecord(name, email, hashedSecret string) models.UserRecord {
	rec := models.UserRecord{
		Email:          email,
		Name:           name,
		PasswordSecret: hashedSecret,
		TotalHours:     0,
		Streak:         1,
		JoinedAt:       time.Now().UTC(),
	}
	rec.SetProgress(map[string]int{})
	return rec
}
