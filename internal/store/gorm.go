package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sai-suraj143/Intelli-Prep/internal/models"
)

// GormStore backs the UserStore contract with a relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetAll(ctx context.Context) ([]models.UserRecord, error) {
	var users []models.UserRecord
	if err := s.db.WithContext(ctx).Order("joined_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	var user models.UserRecord
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) FindByCredentials(ctx context.Context, email, password string) (*models.UserRecord, error) {
	user, err := s.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !verifySecret(user.PasswordSecret, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Upsert inserts the record or replaces the existing row with the same
// email wholesale; fields are never merged.
func (s *GormStore) Upsert(ctx context.Context, rec models.UserRecord) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		UpdateAll: true,
	}).Create(&rec).Error
}

// Register inserts without the upsert clause so the email primary key
// enforces uniqueness even under concurrent registrations; the database
// reports the loser of the race as a duplicate.
func (s *GormStore) Register(ctx context.Context, name, email, password string) (*models.UserRecord, error) {
	hashed, err := hashSecret(password)
	if err != nil {
		return nil, err
	}
	rec := newRecord(name, email, hashed)
	err = s.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateRegistration
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
