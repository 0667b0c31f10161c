package handlers

import (
	"errors"
	"net/http"
	"strings"

	"feedback-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// errorBody is the JSON shape of every 4xx/5xx this API writes itself
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// bindAndValidate decodes the request body into req and runs the registered
// validator over it
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return validationResponse(c, err)
	}
	return nil
}

// validationResponse writes a 400 listing the offending fields
func validationResponse(c echo.Context, err error) error {
	var verr *models.ValidationError
	if errors.As(models.AsValidationError(err), &verr) {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Validation failed", Errors: verr.Fields})
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// internalError logs err, reports it and hides it from the client
func internalError(c echo.Context, msg string, err error) error {
	c.Logger().Errorf("%s: %v", msg, err)
	CaptureError(err)
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}

// bearerToken returns the raw token from an "Authorization: Bearer" header
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
