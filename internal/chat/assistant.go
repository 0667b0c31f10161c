// Package chat answers staff questions about recent guest feedback.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"feedback-backend/internal/ai"
	"feedback-backend/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var ErrEmptyMessage = errors.New("message is required")

const (
	recentFeedbackCount = 20
	maxMessageLength    = 2000
)

const systemPrompt = `You are the guest experience assistant of a hotel. You help staff understand guest and staff feedback.
Answer in the language of the question, briefly and concretely. Only use the feedback listed below; if it does not answer the question, say so.`

// FeedbackSource gives the assistant the records it summarizes
type FeedbackSource interface {
	Recent(ctx context.Context, n int) ([]models.Feedback, error)
}

type Reply struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

type Assistant struct {
	gen      ai.Generator
	history  History
	feedback FeedbackSource
	logger   echo.Logger
}

func NewAssistant(gen ai.Generator, history History, feedback FeedbackSource, logger echo.Logger) *Assistant {
	return &Assistant{gen: gen, history: history, feedback: feedback, logger: logger}
}

// Configured is false when the upstream model has no credential
func (a *Assistant) Configured() bool {
	if a == nil || a.gen == nil {
		return false
	}
	if c, ok := a.gen.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// Reply answers message within the given session. An empty sessionID starts
// a new session whose id is returned with the reply.
func (a *Assistant) Reply(ctx context.Context, sessionID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if !a.Configured() {
		return Reply{}, ai.ErrNotConfigured
	}
	if len([]rune(message)) > maxMessageLength {
		message = string([]rune(message)[:maxMessageLength])
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	past, err := a.history.Get(ctx, sessionID)
	if err != nil {
		a.logger.Warnf("Chat history unavailable for session %s: %v", sessionID, err)
	}

	system := systemPrompt
	if a.feedback != nil {
		recent, err := a.feedback.Recent(ctx, recentFeedbackCount)
		if err != nil {
			a.logger.Warnf("Could not load recent feedback for chat: %v", err)
		} else {
			system += "\n\n" + SummarizeFeedback(recent)
		}
	}

	userTurn := ai.Turn{Role: "user", Text: message}
	turns := append(past, userTurn)

	text, err := a.gen.Generate(ctx, system, turns, ai.Options{Temperature: 0.4, MaxOutputTokens: 512})
	if err != nil {
		return Reply{SessionID: sessionID}, err
	}

	if err := a.history.Append(ctx, sessionID, userTurn, ai.Turn{Role: "model", Text: text}); err != nil {
		a.logger.Warnf("Failed to store chat history for session %s: %v", sessionID, err)
	}

	return Reply{Reply: text, SessionID: sessionID}, nil
}

// SummarizeFeedback renders records as one line each for the model prompt
func SummarizeFeedback(records []models.Feedback) string {
	if len(records) == 0 {
		return "Recent feedback: none yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent feedback (%d records, newest first):\n", len(records))
	for _, fb := range records {
		fmt.Fprintf(&b, "- %s %s", fb.Timestamp.UTC().Format("2006-01-02 15:04"), fb.Source)
		if loc := fb.DisplayLocation(); loc != "" {
			fmt.Fprintf(&b, " @ %s", loc)
		}
		if fb.Severity != "" {
			fmt.Fprintf(&b, " severity=%s", fb.Severity)
		}
		if r := fb.PrimaryRating(); r != nil {
			fmt.Fprintf(&b, " rating=%d/5", *r)
		}
		fmt.Fprintf(&b, " sentiment=%s", fb.Sentiment)
		if fb.IsNegative {
			b.WriteString(" NEGATIVE")
		}
		if c := fb.PrimaryComment(); c != "" {
			if len([]rune(c)) > 200 {
				c = string([]rune(c)[:200]) + "..."
			}
			fmt.Fprintf(&b, ": %q", c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ErrorResponse maps an assistant error to the status and message shown to the user
func ErrorResponse(err error) (int, string) {
	var ue *ai.UpstreamError
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return http.StatusBadRequest, "Message is required"
	case errors.Is(err, ai.ErrNotConfigured):
		return http.StatusServiceUnavailable, "The assistant is not available right now"
	case ai.IsBlocked(err):
		return http.StatusInternalServerError, "I can't answer that because it was blocked by safety filters. Please rephrase your question."
	case errors.As(err, &ue):
		switch ue.StatusCode {
		case http.StatusBadRequest:
			return http.StatusInternalServerError, "There was a problem with the request format. Please try a different question."
		case http.StatusTooManyRequests:
			return http.StatusInternalServerError, "The assistant is busy right now. Please try again in a moment."
		case http.StatusNotFound:
			return http.StatusInternalServerError, "The assistant model is not available. Please contact an administrator."
		}
	}
	return http.StatusInternalServerError, "Sorry, something went wrong while generating a reply."
}
