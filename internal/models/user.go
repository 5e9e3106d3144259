package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserRecord is the persisted account for one user, keyed by email.
// Email matching is exact and case-sensitive everywhere in the store.
type UserRecord struct {
	Email          string                             `gorm:"primaryKey" json:"email"`
	Name           string                             `json:"name"`
	PasswordSecret string                             `json:"-"`
	Progress       datatypes.JSONType[map[string]int] `json:"progress"`
	TotalHours     float64                            `json:"totalHours"`
	Streak         int                                `json:"streak"`
	JoinedAt       time.Time                          `json:"joinedAt"`
}

// ProgressMap returns the topic → answered-question counts, never nil.
func (u *UserRecord) ProgressMap() map[string]int {
	p := u.Progress.Data()
	if p == nil {
		p = make(map[string]int)
	}
	return p
}

func (u *UserRecord) SetProgress(p map[string]int) {
	u.Progress = datatypes.NewJSONType(p)
}
