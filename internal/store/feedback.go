// Package store holds the GORM-backed persistence for feedback records and
// submission tokens.
package store

import (
	"context"
	"errors"
	"fmt"

	"feedback-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedbackStore is an append-only collection of feedback records
type FeedbackStore struct {
	db *gorm.DB
}

func NewFeedbackStore(db *gorm.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

// Create inserts fb, filling its id and timestamp. Schema violations are
// returned as *models.ValidationError.
func (s *FeedbackStore) Create(ctx context.Context, fb *models.Feedback) error {
	err := s.db.WithContext(ctx).Create(fb).Error
	if err == nil {
		return nil
	}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return fmt.Errorf("inserting feedback: %w", err)
}

// ListRecent returns records newest first. limit <= 0 returns everything.
func (s *FeedbackStore) ListRecent(ctx context.Context, limit int) ([]models.Feedback, error) {
	q := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
	if limit > 0 {
		q = q.Limit(limit)
	}

	feedback := []models.Feedback{}
	if err := q.Find(&feedback).Error; err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return feedback, nil
}
