package common

import (
	"feedback-backend/internal/alerts"
	"feedback-backend/internal/chat"
	"feedback-backend/internal/config"
	"feedback-backend/internal/feedback"
	"feedback-backend/internal/models"
	"feedback-backend/internal/tokens"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type JwtCustomClaims struct {
	UserID   string      `json:"uid"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

type JWTIssuer interface {
	GenerateToken(user *models.User) (string, error)
	ParseToken(raw string) (*JwtCustomClaims, error)
	Middleware() echo.MiddlewareFunc
	GetClaims(c echo.Context) (*JwtCustomClaims, error)
}

type ServerState struct {
	Echo      *echo.Echo
	Config    *config.Config
	DB        *gorm.DB
	JwtIssuer JWTIssuer
	Redis     *redis.Client

	Feedback  *feedback.Service
	Tokens    *tokens.Validator
	Alerts    *alerts.Dispatcher
	Assistant *chat.Assistant
}
