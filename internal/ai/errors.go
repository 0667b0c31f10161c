package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConfigured = errors.New("ai api key not configured")
	ErrBlocked       = errors.New("response blocked by safety filters")
	ErrEmptyResponse = errors.New("empty response from model")
)

// UpstreamError is returned when the model API answers with a non-2xx status
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("model api returned status %d: %s", e.StatusCode, body)
}

// Blocked reports whether the error body names a safety block
func (e *UpstreamError) Blocked() bool {
	return strings.Contains(strings.ToUpper(e.Body), "SAFETY")
}

// IsBlocked reports whether err means the model refused for safety reasons
func IsBlocked(err error) bool {
	if errors.Is(err, ErrBlocked) {
		return true
	}
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Blocked()
}
