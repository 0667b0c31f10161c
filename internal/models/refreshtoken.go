package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken lets a client obtain new access tokens until it expires
type RefreshToken struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"type:varchar(64);not null;uniqueIndex"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	User      *User     `json:"-"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) (err error) {
	if t.Token == "" {
		t.Token = uuid.NewString()
	}
	return
}

// CreateRefreshToken stores a new refresh token for userID valid for ttl
func CreateRefreshToken(db *gorm.DB, userID string, ttl time.Duration) (*RefreshToken, error) {
	t := &RefreshToken{
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetRefreshToken returns the stored token with its user, or nil if absent
func GetRefreshToken(db *gorm.DB, token string) (*RefreshToken, error) {
	var t RefreshToken
	result := db.Preload("User").Where("token = ?", token).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &t, nil
}

// DeleteRefreshToken removes a token; deleting an unknown token is not an error
func DeleteRefreshToken(db *gorm.DB, token string) error {
	return db.Where("token = ?", token).Delete(&RefreshToken{}).Error
}

// IsExpired checks if the token can no longer be used
func (t *RefreshToken) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}
