package handlers

import (
	"errors"
	"net/http"
	"time"

	"feedback-backend/internal/common"
	"feedback-backend/internal/tokens"

	"github.com/labstack/echo/v4"
)

type TokenHandler struct {
	validator *tokens.Validator
	jwt       common.JWTIssuer
}

type IssueTokenRequest struct {
	Loc       string `json:"loc" validate:"required,max=64"`
	ID        string `json:"id" validate:"max=64"`
	GuestName string `json:"guestName" validate:"max=100"`
	// TTL is a Go duration such as "2h"; empty uses the configured default
	TTL string `json:"ttl"`
}

func NewTokenHandler(v *tokens.Validator, jwt common.JWTIssuer) *TokenHandler {
	return &TokenHandler{validator: v, jwt: jwt}
}

// ValidateToken answers GET /feedback/validate-token?tok=&loc=&id=
func (h *TokenHandler) ValidateToken(c echo.Context) error {
	res, err := h.validator.Validate(c.Request().Context(), c.QueryParam("tok"), c.QueryParam("loc"), c.QueryParam("id"))
	if errors.Is(err, tokens.ErrTokenRequired) {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing token")
	}
	if err != nil {
		return internalError(c, "Failed to validate token", err)
	}

	if !res.Valid {
		return c.JSON(http.StatusNotFound, res)
	}
	return c.JSON(http.StatusOK, res)
}

// IssueToken creates a submission token for a room, table or checkout desk
func (h *TokenHandler) IssueToken(c echo.Context) error {
	req := &IssueTokenRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return err
	}

	var ttl time.Duration
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil || d <= 0 {
			return c.JSON(http.StatusBadRequest, errorBody{
				Message: "Validation failed",
				Errors:  map[string]string{"ttl": "must be a positive duration such as 2h"},
			})
		}
		ttl = d
	}

	var createdBy string
	if claims, err := h.jwt.GetClaims(c); err == nil {
		createdBy = claims.Username
	}

	t, err := h.validator.Issue(c.Request().Context(), tokens.IssueRequest{
		Loc:       req.Loc,
		ID:        req.ID,
		GuestName: req.GuestName,
		TTL:       ttl,
		CreatedBy: createdBy,
	})
	if err != nil {
		return submissionError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}
