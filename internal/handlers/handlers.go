package handlers

import (
	"errors"
	"net/http"

	"feedback-backend/internal/common"
	"feedback-backend/internal/config"
	"feedback-backend/internal/models"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type AuthHandler struct {
	common.ServerState
}

type RegisterRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=64"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=admin staff"`
}

type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	Role         models.Role `json:"role"`
	Username     string      `json:"username"`
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, jwt common.JWTIssuer) *AuthHandler {
	return &AuthHandler{
		ServerState: common.ServerState{
			DB:        db,
			Config:    cfg,
			JwtIssuer: jwt,
		},
	}
}

// Register creates a back-office user. Creating an admin needs an admin
// bearer token, and so does any account when registration is admin only.
func (h *AuthHandler) Register(c echo.Context) error {
	c.Logger().Info("Received registration request")

	req := &RegisterRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	if err := models.CheckPasswordLength(req.Password); err != nil {
		return validationResponse(c, err)
	}

	if req.Role == models.RoleAdmin || h.Config.Auth.AdminOnlyRegistration {
		if !h.adminBearer(c) {
			return echo.NewHTTPError(http.StatusForbidden, "Only admins can create this account")
		}
	}

	u := &models.User{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	}
	result := h.DB.WithContext(c.Request().Context()).Create(u)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return echo.NewHTTPError(http.StatusConflict, "user with this username already exists")
	}
	if result.Error != nil {
		return internalError(c, "Failed to create user", result.Error)
	}

	if u.IsAdmin() {
		c.Logger().Infof("Admin account %s created", u.Username)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) adminBearer(c echo.Context) bool {
	raw := bearerToken(c)
	if raw == "" {
		return false
	}
	claims, err := h.JwtIssuer.ParseToken(raw)
	return err == nil && claims.Role == models.RoleAdmin
}

func (h *AuthHandler) Login(c echo.Context) error {
	c.Logger().Info("Received sign-in request")

	req := &SignInRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return err
	}

	db := h.DB.WithContext(c.Request().Context())
	u, err := models.GetUserByUsername(db, req.Username)
	if errors.Is(err, models.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}
	if err != nil {
		return internalError(c, "Failed to sign in", err)
	}

	if !u.CheckPassword(req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	token, err := h.JwtIssuer.GenerateToken(u)
	if err != nil {
		return internalError(c, "Failed to generate token", err)
	}

	refresh, err := models.CreateRefreshToken(db, u.ID, h.Config.Auth.RefreshTokenTTL)
	if err != nil {
		return internalError(c, "Failed to create refresh token", err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  token,
		RefreshToken: refresh.Token,
		Role:         u.Role,
		Username:     u.Username,
	})
}

// Refresh exchanges a stored refresh token for a new access token. Expired
// refresh tokens are deleted on first use.
func (h *AuthHandler) Refresh(c echo.Context) error {
	req := &RefreshRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return err
	}

	db := h.DB.WithContext(c.Request().Context())
	stored, err := models.GetRefreshToken(db, req.RefreshToken)
	if err != nil {
		return internalError(c, "Failed to refresh token", err)
	}
	if stored == nil || stored.User == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	if stored.IsExpired() {
		if err := models.DeleteRefreshToken(db, stored.Token); err != nil {
			c.Logger().Errorf("Failed to delete expired refresh token: %v", err)
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token expired")
	}

	token, err := h.JwtIssuer.GenerateToken(stored.User)
	if err != nil {
		return internalError(c, "Failed to generate token", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"accessToken": token})
}

// Logout forgets a refresh token. Unknown tokens are ignored.
func (h *AuthHandler) Logout(c echo.Context) error {
	req := &RefreshRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return err
	}

	if err := models.DeleteRefreshToken(h.DB.WithContext(c.Request().Context()), req.RefreshToken); err != nil {
		return internalError(c, "Failed to sign out", err)
	}
	return c.NoContent(http.StatusNoContent)
}
