package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedback-backend/internal/models"

	"gorm.io/gorm"
)

// ErrTokenUnavailable is returned when a token does not exist, expired or was already used
var ErrTokenUnavailable = errors.New("submission token unavailable")

// TokenStore persists contextual submission tokens
type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create stores a new token, generating its value when empty
func (s *TokenStore) Create(ctx context.Context, t *models.SubmissionToken) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return fmt.Errorf("creating submission token: %w", err)
	}
	return nil
}

// Get returns the token or nil if it does not exist
func (s *TokenStore) Get(ctx context.Context, token string) (*models.SubmissionToken, error) {
	var t models.SubmissionToken
	result := s.db.WithContext(ctx).Where("token = ?", token).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting submission token: %w", result.Error)
	}
	return &t, nil
}

// Consume marks the token used at now if it was issued for loc and, when id is
// set, for that id. The conditional update makes concurrent submissions with
// the same token race to a single winner.
func (s *TokenStore) Consume(ctx context.Context, token, loc, id string, now time.Time) (*models.SubmissionToken, error) {
	q := s.db.WithContext(ctx).
		Model(&models.SubmissionToken{}).
		Where("token = ? AND loc = ? AND used_at IS NULL AND expires_at > ?", token, loc, now)
	if id != "" {
		q = q.Where("context_id = ?", id)
	}
	result := q.Update("used_at", now)
	if result.Error != nil {
		return nil, fmt.Errorf("consuming submission token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrTokenUnavailable
	}

	t, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTokenUnavailable
	}
	return t, nil
}

// Release makes a consumed token usable again
func (s *TokenStore) Release(ctx context.Context, token string) error {
	err := s.db.WithContext(ctx).
		Model(&models.SubmissionToken{}).
		Where("token = ?", token).
		Update("used_at", nil).Error
	if err != nil {
		return fmt.Errorf("releasing submission token: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that expired before the cutoff
func (s *TokenStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.SubmissionToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting expired submission tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
