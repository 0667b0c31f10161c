package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"feedback-backend/internal/common"
	"feedback-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const jwtContextKey = "user"

type JwtAuth struct {
	Secret string
	TTL    time.Duration
}

func NewJwtAuth(secret string, ttl time.Duration) *JwtAuth {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &JwtAuth{Secret: secret, TTL: ttl}
}

// GenerateToken issues a signed access token carrying the user's role
func (j *JwtAuth) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &common.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.Secret))
}

// ParseToken validates a raw bearer token outside of the middleware
func (j *JwtAuth) ParseToken(raw string) (*common.JwtCustomClaims, error) {
	claims := &common.JwtCustomClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(j.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token with 401
func (j *JwtAuth) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(j.Secret),
		ContextKey: jwtContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(common.JwtCustomClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing bearer token")
		},
	})
}

func (j *JwtAuth) GetClaims(c echo.Context) (*common.JwtCustomClaims, error) {
	token, ok := c.Get(jwtContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("no token in context")
	}
	claims, ok := token.Claims.(*common.JwtCustomClaims)
	if !ok {
		return nil, errors.New("unexpected token claims")
	}
	return claims, nil
}

// RequireRole only lets through users whose token carries one of roles.
// It must run after the JWT middleware.
func RequireRole(issuer common.JWTIssuer, roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := issuer.GetClaims(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			if !slices.Contains(roles, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
