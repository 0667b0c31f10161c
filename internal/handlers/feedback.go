package handlers

import (
	"errors"
	"net/http"

	"feedback-backend/internal/feedback"
	"feedback-backend/internal/models"
	"feedback-backend/internal/tokens"

	"github.com/labstack/echo/v4"
)

type FeedbackHandler struct {
	svc *feedback.Service
}

func NewFeedbackHandler(svc *feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

func (h *FeedbackHandler) SubmitGuest(c echo.Context) error {
	req := feedback.GuestSubmission{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	fb, err := h.svc.SubmitGuest(c.Request().Context(), req)
	if err != nil {
		return submissionError(c, err)
	}
	return c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHandler) SubmitStaff(c echo.Context) error {
	req := feedback.StaffSubmission{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	fb, err := h.svc.SubmitStaff(c.Request().Context(), req)
	if err != nil {
		return submissionError(c, err)
	}
	return c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHandler) SubmitContextual(c echo.Context) error {
	req := feedback.ContextualSubmission{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	fb, err := h.svc.SubmitContextual(c.Request().Context(), req)
	if err != nil {
		return submissionError(c, err)
	}
	return c.JSON(http.StatusCreated, fb)
}

// List returns every record, newest first. Access control is done by the
// route middleware.
func (h *FeedbackHandler) List(c echo.Context) error {
	records, err := h.svc.List(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to list feedback", err)
	}
	return c.JSON(http.StatusOK, records)
}

func submissionError(c echo.Context, err error) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Validation failed", Errors: verr.Fields})
	case errors.Is(err, feedback.ErrMissingContextLoc):
		return c.JSON(http.StatusBadRequest, errorBody{
			Message: "Missing context location",
			Errors:  map[string]string{"context.loc": "is required"},
		})
	case errors.Is(err, tokens.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid, expired or already used token")
	default:
		return internalError(c, "Failed to save feedback", err)
	}
}
