package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"feedback-backend/internal/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port string
		Host string
		TLS  struct {
			Enabled  bool
			CertFile string
			KeyFile  string
		}
		Debug bool
	}
	Auth struct {
		JWTSecret       string
		AccessTokenTTL  time.Duration
		RefreshTokenTTL time.Duration
		// AdminOnlyRegistration closes /auth/register to everyone but admins
		AdminOnlyRegistration bool
	}
	Database struct {
		DSN      string
		RedisURI string
	}
	Tokens struct {
		SubmissionTTL time.Duration
	}
	AI struct {
		APIKey           string
		Model            string
		BaseURL          string
		SentimentTimeout time.Duration
	}
	Chat struct {
		HistoryLimit int
	}
	Twilio struct {
		AccountSID string
		AuthToken  string
		FromNumber string
		ToNumber   string
		BaseURL    string
	}
	Slack struct {
		AlertWebhookURL string
	}
	Resend struct {
		APIKey        string
		DefaultSender string
		AlertTo       string
	}
	Sentry struct {
		DSN string
	}
	// Warnings collects non-fatal problems found while loading
	Warnings []string
}

func Load() (*Config, error) {
	envStack := os.Getenv("ENV_STACK")

	if envStack != "" {
		filePath := "./env-files/.env." + envStack
		if err := godotenv.Load(filePath); err != nil {
			fmt.Printf("Error loading .env file: %s\n", err)
		}
	}

	c := &Config{}
	var err error

	c.Server.Port = getEnv("SERVER_PORT", "1926")
	c.Server.Host = getEnv("SERVER_HOST", "localhost")
	c.Server.Debug = os.Getenv("ENABLE_DEBUG_ENDPOINTS") == "true"

	// TLS Configuration
	useTLS := os.Getenv("USE_TLS")
	c.Server.TLS.Enabled = useTLS != "" && useTLS != "false" && useTLS != "0"
	c.Server.TLS.CertFile = getEnv("TLS_CERT_FILE", "./certs/localhost.pem")
	c.Server.TLS.KeyFile = getEnv("TLS_KEY_FILE", "./certs/localhost-key.pem")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if c.Auth.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if c.Auth.RefreshTokenTTL, err = getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	c.Auth.AdminOnlyRegistration = os.Getenv("ADMIN_ONLY_REGISTRATION") == "true"

	c.Database.DSN = os.Getenv("DATABASE_DSN")
	c.Database.RedisURI = os.Getenv("REDIS_URI")

	if c.Tokens.SubmissionTTL, err = getDuration("SUBMISSION_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	c.AI.Model = getEnv("GEMINI_MODEL", "gemini-2.5-flash")
	c.AI.BaseURL = os.Getenv("GEMINI_BASE_URL")
	if c.AI.SentimentTimeout, err = getDuration("SENTIMENT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	c.Chat.HistoryLimit = 10
	if raw := os.Getenv("CHAT_HISTORY_LIMIT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CHAT_HISTORY_LIMIT must be a positive integer, got %q", raw)
		}
		c.Chat.HistoryLimit = n
	}

	c.Twilio.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = c.checkPhone("TWILIO_FROM_NUMBER")
	c.Twilio.ToNumber = c.checkPhone("ALERT_TO_NUMBER")
	c.Twilio.BaseURL = os.Getenv("TWILIO_BASE_URL")

	c.Slack.AlertWebhookURL = os.Getenv("SLACK_ALERT_WEBHOOK_URL")

	c.Resend.APIKey = os.Getenv("RESEND_API_KEY")
	c.Resend.DefaultSender = getEnv("RESEND_DEFAULT_SENDER", "alerts@feedback.local")
	c.Resend.AlertTo = c.checkEmail("ALERT_EMAIL_TO")

	c.Sentry.DSN = os.Getenv("SENTRY_DSN")

	return c, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// checkPhone returns the number from key, or "" with a warning when it is malformed
func (c *Config) checkPhone(key string) string {
	v := os.Getenv(key)
	if v == "" {
		return ""
	}
	if err := utils.ValidatePhoneNumber(v); err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s ignored: %v", key, err))
		return ""
	}
	return v
}

func (c *Config) checkEmail(key string) string {
	v := os.Getenv(key)
	if v == "" {
		return ""
	}
	if err := utils.ValidateEmailAddress(v); err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s ignored: %v", key, err))
		return ""
	}
	return v
}
