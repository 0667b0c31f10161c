package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultSubmissionTokenTTL is how long a contextual submission token stays valid
// when no explicit lifetime is configured
const DefaultSubmissionTokenTTL = 24 * time.Hour

// SubmissionToken ties a feedback form (QR code, room card, receipt link) to
// the physical context it was issued for. It can be used exactly once.
type SubmissionToken struct {
	ID        uint       `json:"-" gorm:"primaryKey"`
	Token     string     `json:"token" gorm:"type:varchar(64);not null;uniqueIndex"`
	Loc       string     `json:"loc" gorm:"type:varchar(64);not null" validate:"required,max=64"`
	ContextID string     `json:"id,omitempty" gorm:"type:varchar(64)" validate:"max=64"`
	GuestName string     `json:"guestName,omitempty" validate:"max=100"`
	CreatedBy string     `json:"createdBy,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null;index"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (t *SubmissionToken) BeforeCreate(tx *gorm.DB) (err error) {
	if t.Token == "" {
		uuidV7, err := uuid.NewV7()
		if err != nil {
			return err
		}
		t.Token = uuidV7.String()
	}
	return ValidateStruct(t)
}

// Used checks if the token was already consumed by a submission
func (t *SubmissionToken) Used() bool {
	return t.UsedAt != nil
}

// IsExpired checks the token lifetime against now
func (t *SubmissionToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsValid checks if the token can still be used
func (t *SubmissionToken) IsValid(now time.Time) bool {
	return !t.Used() && !t.IsExpired(now)
}
