// Package feedback turns guest, staff and contextual submissions into
// persisted records and decides which of them need an alert.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"feedback-backend/internal/classifier"
	"feedback-backend/internal/metrics"
	"feedback-backend/internal/models"

	"github.com/labstack/echo/v4"
)

var ErrMissingContextLoc = errors.New("context.loc is required")

// lowRating is the highest rating that still counts as a complaint
const lowRating = 2

type Store interface {
	Create(ctx context.Context, fb *models.Feedback) error
	ListRecent(ctx context.Context, limit int) ([]models.Feedback, error)
}

type TokenConsumer interface {
	Consume(ctx context.Context, token, loc, id string) (*models.SubmissionToken, error)
	Release(ctx context.Context, token string) error
}

type AlertDispatcher interface {
	Dispatch(fb *models.Feedback)
}

type Service struct {
	store     Store
	sentiment classifier.SentimentClassifier
	tokens    TokenConsumer
	alerts    AlertDispatcher
	logger    echo.Logger
}

// NewService wires the ingestion policy. sentiment and tokens may be nil:
// guests are then classified by keywords only and tokens are stored unchecked.
func NewService(store Store, sentiment classifier.SentimentClassifier, tokens TokenConsumer, alerts AlertDispatcher, logger echo.Logger) *Service {
	return &Service{
		store:     store,
		sentiment: sentiment,
		tokens:    tokens,
		alerts:    alerts,
		logger:    logger,
	}
}

func (s *Service) SubmitGuest(ctx context.Context, sub GuestSubmission) (*models.Feedback, error) {
	if err := models.ValidateStruct(&sub); err != nil {
		return nil, err
	}

	sentiment := s.classifyGuest(ctx, sub.Comment)
	fb := &models.Feedback{
		Source:     models.SourceGuest,
		Rating:     sub.Rating,
		Comment:    sub.Comment,
		RoomNumber: sub.RoomNumber,
		Language:   sub.Language,
		Sentiment:  sentiment,
		IsNegative: sentiment == models.SentimentNegative,
	}

	if err := s.persist(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *Service) SubmitStaff(ctx context.Context, sub StaffSubmission) (*models.Feedback, error) {
	if err := models.ValidateStruct(&sub); err != nil {
		return nil, err
	}

	negative := sub.Severity == models.SeverityHigh
	fb := &models.Feedback{
		Source:     models.SourceStaff,
		Category:   sub.Category,
		Severity:   sub.Severity,
		Location:   sub.Location,
		Details:    sub.Details,
		Sentiment:  sentimentFor(negative),
		IsNegative: negative,
	}

	if err := s.persist(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// SubmitContextual stores a per-area submission. A token, when given, must
// have been issued for the submitted loc (and id, if sent). It is consumed
// before the insert and released again if the insert fails.
func (s *Service) SubmitContextual(ctx context.Context, sub ContextualSubmission) (*models.Feedback, error) {
	sub.Context.Loc = strings.TrimSpace(sub.Context.Loc)
	if sub.Context.Loc == "" {
		return nil, ErrMissingContextLoc
	}
	if err := models.ValidateStruct(&sub); err != nil {
		return nil, err
	}

	fb := sub.record()
	fb.IsNegative = ContextualNegative(fb)
	fb.Sentiment = sentimentFor(fb.IsNegative)
	if fb.IsNegative {
		var hits []string
		for _, c := range fb.AreaComments() {
			hits = append(hits, classifier.MatchedKeywords(c)...)
		}
		if len(hits) > 0 {
			s.logger.Infof("Contextual %s feedback matched negative keywords %v", fb.ContextLoc, hits)
		}
	}
	if err := fb.Validate(); err != nil {
		return nil, err
	}

	token := sub.Context.Token
	if token != "" && s.tokens != nil {
		t, err := s.tokens.Consume(ctx, token, fb.ContextLoc, fb.ContextID)
		if err != nil {
			return nil, err
		}
		if fb.ContextGuestName == "" {
			fb.ContextGuestName = t.GuestName
		}
		if fb.ContextID == "" {
			fb.ContextID = t.ContextID
		}
	}

	if err := s.persist(ctx, fb); err != nil {
		if token != "" && s.tokens != nil {
			if rerr := s.tokens.Release(ctx, token); rerr != nil {
				s.logger.Errorf("Failed to release submission token after insert error: %v", rerr)
			}
		}
		return nil, err
	}
	return fb, nil
}

// List returns every record, newest first
func (s *Service) List(ctx context.Context) ([]models.Feedback, error) {
	return s.store.ListRecent(ctx, 0)
}

// Recent returns the newest n records
func (s *Service) Recent(ctx context.Context, n int) ([]models.Feedback, error) {
	if n <= 0 {
		return []models.Feedback{}, nil
	}
	return s.store.ListRecent(ctx, n)
}

// ContextualNegative applies the escalation rules for a contextual record.
// The first matching rule wins: low ratings for the record's location, then
// a keyword scan of every area comment.
func ContextualNegative(fb *models.Feedback) bool {
	switch fb.ContextLoc {
	case models.LocCheckout:
		if low(fb.CheckoutSpeed) || low(fb.BillingAccuracy) {
			return true
		}
	case models.LocRoom:
		if low(fb.RoomCleanliness) || low(fb.BathroomCleanliness) {
			return true
		}
	case models.LocDiningTable:
		if low(fb.FoodQuality) {
			return true
		}
	}
	return classifier.AnyNegative(fb.AreaComments()...)
}

func low(rating *int) bool {
	return rating != nil && *rating <= lowRating
}

func sentimentFor(negative bool) models.Sentiment {
	if negative {
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}

// classifyGuest asks the sentiment model and falls back to the keyword list
// when the model cannot answer
func (s *Service) classifyGuest(ctx context.Context, comment string) models.Sentiment {
	if strings.TrimSpace(comment) == "" {
		return models.SentimentNeutral
	}

	if s.sentiment != nil {
		sentiment, err := s.sentiment.Classify(ctx, comment)
		if err == nil {
			return sentiment
		}
		s.logger.Warnf("Sentiment classification unavailable, using keywords: %v", err)
	}

	if hits := classifier.MatchedKeywords(comment); len(hits) > 0 {
		s.logger.Infof("Guest comment matched negative keywords %v", hits)
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}

func (s *Service) persist(ctx context.Context, fb *models.Feedback) error {
	if err := s.store.Create(ctx, fb); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return fmt.Errorf("storing %s feedback: %w", strings.ToLower(string(fb.Source)), err)
	}

	metrics.ObserveSubmission(string(fb.Source), fb.IsNegative)
	if fb.IsNegative && s.alerts != nil {
		s.alerts.Dispatch(fb)
	}
	return nil
}
