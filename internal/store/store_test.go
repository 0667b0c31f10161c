package store

import (
	"context"
	"testing"
	"time"

	"feedback-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// A named in-memory database keeps tests isolated from each other
	db, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func intPtr(i int) *int { return &i }

func TestFeedbackStore_CreateAssignsIDAndTimestamp(t *testing.T) {
	s := NewFeedbackStore(setupTestDB(t))

	fb := &models.Feedback{Source: models.SourceGuest, Rating: intPtr(4), Comment: "Nice"}
	require.NoError(t, s.Create(context.Background(), fb))

	assert.NotEmpty(t, fb.ID)
	assert.False(t, fb.Timestamp.IsZero())
	assert.Equal(t, models.SentimentNeutral, fb.Sentiment)
}

func TestFeedbackStore_CreateRejectsInvalidRecord(t *testing.T) {
	s := NewFeedbackStore(setupTestDB(t))

	tests := []struct {
		name  string
		fb    *models.Feedback
		field string
	}{
		{"missing source", &models.Feedback{Comment: "x"}, "source"},
		{"rating out of range", &models.Feedback{Source: models.SourceGuest, Rating: intPtr(6)}, "rating"},
		{"bad severity", &models.Feedback{Source: models.SourceStaff, Severity: "Critical"}, "severity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Create(context.Background(), tt.fb)

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	all, err := s.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFeedbackStore_ListRecentNewestFirst(t *testing.T) {
	s := NewFeedbackStore(setupTestDB(t))
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, offset := range []int{5, 1, 30, 10} {
		fb := &models.Feedback{
			Source:    models.SourceGuest,
			Rating:    intPtr(i%5 + 1),
			Timestamp: base.Add(time.Duration(offset) * time.Minute),
		}
		require.NoError(t, s.Create(ctx, fb))
	}

	all, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.After(all[i-1].Timestamp), "records must be in non-increasing timestamp order")
	}

	limited, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, all[0].ID, limited[0].ID)
}

func TestTokenStore_ConsumeOnce(t *testing.T) {
	s := NewTokenStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	tok := &models.SubmissionToken{Loc: "room", ContextID: "204", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Create(ctx, tok))
	require.NotEmpty(t, tok.Token)

	got, err := s.Consume(ctx, tok.Token, "room", "", now)
	require.NoError(t, err)
	assert.True(t, got.Used())

	_, err = s.Consume(ctx, tok.Token, "room", "", now)
	assert.ErrorIs(t, err, ErrTokenUnavailable)

	require.NoError(t, s.Release(ctx, tok.Token))
	_, err = s.Consume(ctx, tok.Token, "room", "", now)
	assert.NoError(t, err)
}

func TestTokenStore_ConsumeWrongContext(t *testing.T) {
	s := NewTokenStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	tok := &models.SubmissionToken{Loc: "room", ContextID: "305", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Create(ctx, tok))

	_, err := s.Consume(ctx, tok.Token, "checkout", "", now)
	assert.ErrorIs(t, err, ErrTokenUnavailable)

	_, err = s.Consume(ctx, tok.Token, "room", "999", now)
	assert.ErrorIs(t, err, ErrTokenUnavailable)

	stored, err := s.Get(ctx, tok.Token)
	require.NoError(t, err)
	assert.False(t, stored.Used())

	got, err := s.Consume(ctx, tok.Token, "room", "305", now)
	require.NoError(t, err)
	assert.True(t, got.Used())
}

func TestTokenStore_ConsumeExpiredOrUnknown(t *testing.T) {
	s := NewTokenStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	expired := &models.SubmissionToken{Loc: "checkout", ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, s.Create(ctx, expired))

	_, err := s.Consume(ctx, expired.Token, "checkout", "", now)
	assert.ErrorIs(t, err, ErrTokenUnavailable)

	_, err = s.Consume(ctx, "does-not-exist", "checkout", "", now)
	assert.ErrorIs(t, err, ErrTokenUnavailable)

	missing, err := s.Get(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTokenStore_DeleteExpired(t *testing.T) {
	s := NewTokenStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Create(ctx, &models.SubmissionToken{Loc: "room", ExpiresAt: now.Add(-48 * time.Hour)}))
	live := &models.SubmissionToken{Loc: "room", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Create(ctx, live))

	n, err := s.DeleteExpired(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.Get(ctx, live.Token)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
