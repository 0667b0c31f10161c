package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"feedback-backend/internal/ai"
	"feedback-backend/internal/alerts"
	"feedback-backend/internal/chat"
	"feedback-backend/internal/classifier"
	"feedback-backend/internal/common"
	"feedback-backend/internal/config"
	"feedback-backend/internal/feedback"
	"feedback-backend/internal/handlers"
	"feedback-backend/internal/models"
	"feedback-backend/internal/store"
	"feedback-backend/internal/tokens"

	"github.com/go-playground/validator"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	resend "github.com/resend/resend-go/v2"
)

const tokenCleanupInterval = time.Hour

// CustomValidator Source: https://echo.labstack.com/docs/request#validate-data
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return models.AsValidationError(cv.validator.Struct(i))
}

type SentryLogger struct {
	echo.Logger
}

func (l *SentryLogger) Error(i ...interface{}) {
	// Capture in Sentry
	if err, ok := i[0].(error); ok {
		handlers.CaptureError(err)
	} else {
		handlers.CaptureError(fmt.Errorf("%v", i...))
	}
	// Call original logger
	l.Logger.Error(i...)
}

type Server struct {
	common.ServerState
	quit chan struct{}
}

func New(cfg *config.Config) *Server {
	e := echo.New()
	e.Validator = &CustomValidator{validator: models.NewValidator()}
	e.Logger = &SentryLogger{Logger: e.Logger}
	e.Logger.SetLevel(log.DEBUG)

	return &Server{
		ServerState: common.ServerState{
			Echo:   e,
			Config: cfg,
		},
		quit: make(chan struct{}),
	}
}

func (s *Server) Initialize() error {
	if err := s.setupDatabase(); err != nil {
		return err
	}

	s.setupRedis()

	if err := store.Migrate(s.DB); err != nil {
		return err
	}

	s.setupJWT()

	for _, w := range s.Config.Warnings {
		s.Echo.Logger.Warn(w)
	}

	s.setupAlerts()

	s.setupServices()

	s.setupRoutes()

	s.setupMetrics()

	// Keep last to avoid Recover middleware and panic if something goes wrong on init
	s.setupMiddleware()

	return nil
}

func (s *Server) setupDatabase() error {
	db, err := store.Open(s.Config.Database.DSN)
	if err != nil {
		return err
	}
	s.DB = db
	return nil
}

func (s *Server) setupRedis() {
	url := s.Config.Database.RedisURI

	// Make Redis optional - if URI is empty, skip Redis setup
	if url == "" {
		s.Echo.Logger.Warn("REDIS_URI not configured, using in-memory chat history and no sentiment cache")
		s.Redis = nil
		return
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		s.Echo.Logger.Warnf("Failed to parse Redis URL: %v, Redis features will be disabled", err)
		s.Redis = nil
		return
	}

	s.Redis = redis.NewClient(opts)

	// Validate proper connection, but don't panic on failure
	if err := s.Redis.Ping(context.Background()).Err(); err != nil {
		s.Echo.Logger.Warnf("Redis connection failed: %v, Redis features will be disabled", err)
		s.Redis = nil
	}
}

func (s *Server) setupJWT() {
	secret := s.Config.Auth.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		secret = hex.EncodeToString(buf)
		s.Echo.Logger.Warn("JWT_SECRET not configured, using a random secret; tokens will not survive a restart")
	}
	s.JwtIssuer = handlers.NewJwtAuth(secret, s.Config.Auth.AccessTokenTTL)
}

func (s *Server) setupAlerts() {
	cfg := s.Config

	sms := alerts.NewSMSNotifier(alerts.SMSConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.FromNumber,
		To:         cfg.Twilio.ToNumber,
		BaseURL:    cfg.Twilio.BaseURL,
	})
	slack := alerts.NewSlackNotifier(cfg.Slack.AlertWebhookURL)

	var resendClient *resend.Client
	if cfg.Resend.APIKey != "" {
		resendClient = resend.NewClient(cfg.Resend.APIKey)
	}
	email := alerts.NewEmailNotifier(resendClient, cfg.Resend.DefaultSender, cfg.Resend.AlertTo)

	s.Alerts = alerts.NewDispatcher(s.Echo.Logger, sms, slack, email).WithErrorReporter(handlers.CaptureError)

	if channels := s.Alerts.Configured(); len(channels) == 0 {
		s.Echo.Logger.Warn("No alert channel configured, negative feedback will not be escalated")
	} else {
		s.Echo.Logger.Infof("Alert channels enabled: %v", channels)
	}
}

func (s *Server) setupServices() {
	cfg := s.Config
	logger := s.Echo.Logger

	aiClient := ai.NewClient(ai.Config{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
	}, logger)

	var sentiment classifier.SentimentClassifier
	if aiClient.Configured() {
		sentiment = classifier.NewAISentiment(aiClient, cfg.AI.SentimentTimeout, logger)
		if s.Redis != nil {
			sentiment = classifier.NewCachedClassifier(sentiment, s.Redis, 0, logger)
		}
	} else {
		logger.Warn("GEMINI_API_KEY not configured, guest feedback is classified by keywords only and chat is disabled")
	}

	logger.Debugf("Keyword classifier loaded with %d terms", len(classifier.Keywords()))

	s.Tokens = tokens.NewValidator(store.NewTokenStore(s.DB), cfg.Tokens.SubmissionTTL, logger)
	go s.Tokens.PeriodicCleanup(tokenCleanupInterval, s.quit)

	s.Feedback = feedback.NewService(store.NewFeedbackStore(s.DB), sentiment, s.Tokens, s.Alerts, logger)

	var history chat.History = chat.NewMemoryHistory(cfg.Chat.HistoryLimit, 0)
	if s.Redis != nil {
		history = chat.NewRedisHistory(s.Redis, cfg.Chat.HistoryLimit, 0)
	}
	s.Assistant = chat.NewAssistant(aiClient, history, s.Feedback, logger)
}

func (s *Server) setupMiddleware() {
	s.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Session-ID"},
		ExposeHeaders: []string{"X-Session-ID"},
	}))
	s.Echo.Use(middleware.BodyLimit("1M"))
	s.Echo.Use(middleware.Recover())
	// Try to add prometheus middleware, but don't panic if already registered (e.g., in tests)
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok && err.Error() == "duplicate metrics collector registration attempted" {
				s.Echo.Logger.Warn("Prometheus middleware already registered, skipping")
			} else {
				panic(r)
			}
		}
	}()
	s.Echo.Use(echoprometheus.NewMiddleware("feedback_backend"))
}

func (s *Server) setupMetrics() {
	// Only register Redis metrics if Redis is available
	if s.Redis == nil {
		return
	}

	err := prometheus.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Subsystem: "redis",
			Name:      "connected_clients",
			Help:      "The number of clients currently connected to Redis",
		},
		func() float64 {
			connectedClientsRaw := s.Redis.InfoMap(context.Background()).Item("Clients", "connected_clients")

			connectedClients, err := strconv.ParseFloat(connectedClientsRaw, 64)
			if err != nil {
				return math.NaN()
			}
			return connectedClients
		},
	))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		s.Echo.Logger.Warnf("Failed to register Redis metrics: %v", err)
	}
}

func (s *Server) setupRoutes() {
	handlers.SetupSentry(s.Echo, s.Config)

	auth := handlers.NewAuthHandler(s.DB, s.Config, s.JwtIssuer)
	feedbackHandler := handlers.NewFeedbackHandler(s.Feedback)
	tokenHandler := handlers.NewTokenHandler(s.Tokens, s.JwtIssuer)
	chatHandler := handlers.NewChatHandler(s.Assistant)

	requireJWT := s.JwtIssuer.Middleware()

	s.Echo.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	s.Echo.GET("/metrics", echoprometheus.NewHandler())

	// Feedback intake is public, reading it back is admin only
	fb := s.Echo.Group("/feedback")
	fb.POST("/guest", feedbackHandler.SubmitGuest)
	fb.POST("/staff", feedbackHandler.SubmitStaff)
	fb.POST("/contextual", feedbackHandler.SubmitContextual)
	fb.GET("/validate-token", tokenHandler.ValidateToken)
	fb.GET("", feedbackHandler.List, requireJWT, handlers.RequireRole(s.JwtIssuer, models.RoleAdmin))
	fb.POST("/tokens", tokenHandler.IssueToken, requireJWT, handlers.RequireRole(s.JwtIssuer, models.RoleAdmin, models.RoleStaff))

	// The assistant quotes recent feedback, so it is limited to back-office users
	s.Echo.POST("/chat/message", chatHandler.Message, requireJWT, handlers.RequireRole(s.JwtIssuer, models.RoleAdmin, models.RoleStaff))

	authGroup := s.Echo.Group("/auth")
	authGroup.POST("/register", auth.Register)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/refresh", auth.Refresh)
	authGroup.POST("/logout", auth.Logout)

	// Debug endpoints - only enabled when ENABLE_DEBUG_ENDPOINTS=true
	if s.Config.Server.Debug {
		s.Echo.GET("/debug/alert-channels", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"channels": s.Alerts.Configured(),
			})
		})
	}
}

func (s *Server) Start() error {
	serverURL := s.Config.Server.Host + ":" + s.Config.Server.Port

	if s.Config.Server.TLS.Enabled {
		if _, err := os.Stat(s.Config.Server.TLS.CertFile); os.IsNotExist(err) {
			s.Echo.Logger.Warn("TLS certificate file not found, falling back to HTTP")
			return s.Echo.Start(serverURL)
		}
		if _, err := os.Stat(s.Config.Server.TLS.KeyFile); os.IsNotExist(err) {
			s.Echo.Logger.Warn("TLS key file not found, falling back to HTTP")
			return s.Echo.Start(serverURL)
		}
		return s.Echo.StartTLS(serverURL, s.Config.Server.TLS.CertFile, s.Config.Server.TLS.KeyFile)
	}

	return s.Echo.Start(serverURL)
}

// Shutdown stops accepting requests and waits for pending alerts
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}

	err := s.Echo.Shutdown(ctx)
	if s.Alerts != nil {
		s.Alerts.Wait()
	}
	handlers.FlushSentry()
	return err
}
