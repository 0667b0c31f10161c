// Package tokens issues and checks the one-time tokens printed on room cards,
// table QR codes and checkout receipts.
package tokens

import (
	"context"
	"errors"
	"time"

	"feedback-backend/internal/models"
	"feedback-backend/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	ErrTokenRequired = errors.New("token is required")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// ExpiredRetention is how long expired tokens are kept before cleanup removes them
const ExpiredRetention = 24 * time.Hour

// Store is the persistence the validator needs; *store.TokenStore satisfies it
type Store interface {
	Create(ctx context.Context, t *models.SubmissionToken) error
	Get(ctx context.Context, token string) (*models.SubmissionToken, error)
	Consume(ctx context.Context, token, loc, id string, now time.Time) (*models.SubmissionToken, error)
	Release(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Context is what a contextual form needs to pre-fill itself
type Context struct {
	Loc       string `json:"loc"`
	ID        string `json:"id,omitempty"`
	GuestName string `json:"guestName,omitempty"`
	Token     string `json:"token"`
}

type Result struct {
	Valid   bool     `json:"valid"`
	Context *Context `json:"context,omitempty"`
	Message string   `json:"message,omitempty"`
}

type IssueRequest struct {
	Loc       string        `json:"loc" validate:"required,max=64"`
	ID        string        `json:"id" validate:"max=64"`
	GuestName string        `json:"guestName" validate:"max=100"`
	TTL       time.Duration `json:"-"`
	CreatedBy string        `json:"-"`
}

type Validator struct {
	store  Store
	ttl    time.Duration
	logger echo.Logger
	now    func() time.Time
}

func NewValidator(s Store, ttl time.Duration, logger echo.Logger) *Validator {
	if ttl <= 0 {
		ttl = models.DefaultSubmissionTokenTTL
	}
	return &Validator{store: s, ttl: ttl, logger: logger, now: time.Now}
}

func invalid(msg string) Result {
	return Result{Valid: false, Message: msg}
}

// Validate reports whether token can be used for a submission. loc and id are
// optional hints from the scanned URL; when present they must match the token.
// The returned error is only set for a missing token or a store failure.
func (v *Validator) Validate(ctx context.Context, token, loc, id string) (Result, error) {
	if token == "" {
		return Result{}, ErrTokenRequired
	}

	t, err := v.store.Get(ctx, token)
	if err != nil {
		return Result{}, err
	}

	if t == nil {
		return invalid("Token not found"), nil
	}
	if !t.IsValid(v.now()) {
		if t.Used() {
			return invalid("Token has already been used"), nil
		}
		return invalid("Token has expired"), nil
	}

	switch {
	case loc != "" && loc != t.Loc:
		return invalid("Token does not match this location"), nil
	case id != "" && id != t.ContextID:
		return invalid("Token does not match this location"), nil
	}

	return Result{
		Valid: true,
		Context: &Context{
			Loc:       t.Loc,
			ID:        t.ContextID,
			GuestName: t.GuestName,
			Token:     t.Token,
		},
	}, nil
}

// Issue creates a new token for the given context
func (v *Validator) Issue(ctx context.Context, req IssueRequest) (*models.SubmissionToken, error) {
	ttl := req.TTL
	if ttl <= 0 {
		ttl = v.ttl
	}

	t := &models.SubmissionToken{
		Loc:       req.Loc,
		ContextID: req.ID,
		GuestName: req.GuestName,
		CreatedBy: req.CreatedBy,
		ExpiresAt: v.now().Add(ttl).UTC(),
	}
	if err := v.store.Create(ctx, t); err != nil {
		return nil, err
	}

	v.logger.Infof("Issued submission token for %s %s, expires %s", t.Loc, t.ContextID, t.ExpiresAt.Format(time.RFC3339))
	return t, nil
}

// Consume marks the token as used for a submission at loc (and id, when
// given). Only one caller can consume a token, and a token issued for another
// context is rejected without being used up.
func (v *Validator) Consume(ctx context.Context, token, loc, id string) (*models.SubmissionToken, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}

	t, err := v.store.Consume(ctx, token, loc, id, v.now().UTC())
	if errors.Is(err, store.ErrTokenUnavailable) {
		return nil, ErrInvalidToken
	}
	return t, err
}

// Release undoes Consume when the submission could not be stored
func (v *Validator) Release(ctx context.Context, token string) error {
	return v.store.Release(ctx, token)
}

// Cleanup deletes tokens that expired more than ExpiredRetention ago
func (v *Validator) Cleanup(ctx context.Context) (int64, error) {
	return v.store.DeleteExpired(ctx, v.now().Add(-ExpiredRetention).UTC())
}

// PeriodicCleanup runs Cleanup every interval until quit is closed
func (v *Validator) PeriodicCleanup(interval time.Duration, quit <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			n, err := v.Cleanup(context.Background())
			if err != nil {
				v.logger.Errorf("Failed to clean up submission tokens: %v", err)
				continue
			}
			if n > 0 {
				v.logger.Infof("Removed %d expired submission tokens", n)
			}
		}
	}
}
