package handlers

import (
	"errors"
	"net/http"

	"feedback-backend/internal/ai"
	"feedback-backend/internal/chat"

	"github.com/labstack/echo/v4"
)

const sessionHeader = "X-Session-ID"

type ChatHandler struct {
	assistant *chat.Assistant
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func NewChatHandler(a *chat.Assistant) *ChatHandler {
	return &ChatHandler{assistant: a}
}

func (h *ChatHandler) Message(c echo.Context) error {
	req := &ChatRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.Request().Header.Get(sessionHeader)
	}

	reply, err := h.assistant.Reply(c.Request().Context(), sessionID, req.Message)
	if err != nil {
		status, msg := chat.ErrorResponse(err)
		if status >= http.StatusInternalServerError && !errors.Is(err, ai.ErrNotConfigured) {
			c.Logger().Errorf("Chat reply failed: %v", err)
			CaptureError(err)
		}
		return echo.NewHTTPError(status, msg)
	}

	c.Response().Header().Set(sessionHeader, reply.SessionID)
	return c.JSON(http.StatusOK, reply)
}
