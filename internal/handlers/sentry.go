package handlers

import (
	"time"

	"feedback-backend/internal/config"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

// SetupSentry enables error reporting when a DSN is configured
func SetupSentry(e *echo.Echo, cfg *config.Config) {
	if cfg.Sentry.DSN == "" {
		e.Logger.Warn("SENTRY_DSN not configured, error reporting is disabled")
		return
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
		AttachStacktrace: true,
	})
	if err != nil {
		e.Logger.Warnf("Sentry initialization failed: %v", err)
		return
	}

	e.Use(sentryecho.New(sentryecho.Options{
		Repanic: true,
		Timeout: 2 * time.Second,
	}))
}

// CaptureError reports err to Sentry. It is a no-op when Sentry is disabled.
func CaptureError(err error) {
	if err == nil || sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.CaptureException(err)
}

// FlushSentry waits for buffered events before shutdown
func FlushSentry() {
	if sentry.CurrentHub().Client() != nil {
		sentry.Flush(2 * time.Second)
	}
}
