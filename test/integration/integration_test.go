//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-backend/internal/config"
	"feedback-backend/internal/models"
	"feedback-backend/internal/server"
	"feedback-backend/internal/tokens"

	"gorm.io/gorm"
)

// setupTestServerFast creates a test server with SQLite in-memory and no Redis.
// It uses the actual server.Initialize() method to avoid code duplication
func setupTestServerFast(t *testing.T) (*server.Server, func()) {
	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Host = "localhost"
	cfg.Server.Debug = false
	// Unique name so tests never share the in-memory database
	cfg.Database.DSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.Database.RedisURI = ""
	cfg.Auth.JWTSecret = "test-secret-key-for-testing-only"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Auth.RefreshTokenTTL = time.Hour
	cfg.Tokens.SubmissionTTL = time.Hour
	cfg.AI.SentimentTimeout = time.Second
	cfg.Chat.HistoryLimit = 10

	srv := server.New(cfg)
	srv.Echo.Logger.SetLevel(log.ERROR)

	err := srv.Initialize()
	require.NoError(t, err)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		if srv.DB != nil {
			sqlDB, _ := srv.DB.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}
	}

	return srv, cleanup
}

// createTestUser is a helper to create a user in the test database
func createTestUser(t *testing.T, db *gorm.DB, username, password string, role models.Role) *models.User {
	user := &models.User{
		Username: username,
		Password: password,
		Role:     role,
	}
	err := db.Create(user).Error
	require.NoError(t, err)
	return user
}

func doJSON(t *testing.T, srv *server.Server, method, path string, payload interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code >= 400 {
		t.Logf("%s %s -> %d: %s", method, path, rec.Code, rec.Body.String())
	}
	return rec
}

func login(t *testing.T, srv *server.Server, username, password string) map[string]string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	rec := doJSON(t, srv, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestGuestFeedback_RoundTrip(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	createTestUser(t, srv.DB, "manager", "password123", models.RoleAdmin)
	admin := login(t, srv, "manager", "password123")

	rec := doJSON(t, srv, http.MethodPost, "/feedback/guest", map[string]interface{}{
		"rating":     4,
		"comment":    "Lovely stay, spotless room and friendly staff",
		"roomNumber": "204",
		"language":   "en",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Timestamp.IsZero())
	assert.Equal(t, models.SourceGuest, created.Source)
	assert.False(t, created.IsNegative)

	rec = doJSON(t, srv, http.MethodGet, "/feedback", nil, admin["accessToken"])
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	got := listed[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 4, *got.Rating)
	assert.Equal(t, "Lovely stay, spotless room and friendly staff", got.Comment)
	assert.Equal(t, "204", got.RoomNumber)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, created.Sentiment, got.Sentiment)
	assert.True(t, created.Timestamp.Equal(got.Timestamp))
}

func TestGuestFeedback_KeywordFallbackWithoutAI(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	rec := doJSON(t, srv, http.MethodPost, "/feedback/guest", map[string]interface{}{
		"rating":  1,
		"comment": "La habitación estaba sucia",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.IsNegative)
	assert.Equal(t, models.SentimentNegative, created.Sentiment)
}

func TestGuestFeedback_Invalid(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	rec := doJSON(t, srv, http.MethodPost, "/feedback/guest", map[string]interface{}{"rating": 7}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["errors"], "rating")
}

func TestStaffFeedback(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	rec := doJSON(t, srv, http.MethodPost, "/feedback/staff", map[string]interface{}{
		"category": "Maintenance",
		"severity": "High",
		"location": "Lobby",
		"details":  "Elevator stuck between floors",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.SourceStaff, created.Source)
	assert.True(t, created.IsNegative)
}

func TestContextualFeedback(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	t.Run("missing loc is rejected and not stored", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/feedback/contextual", map[string]interface{}{
			"context":       map[string]string{"id": "204"},
			"checkoutSpeed": 1,
		}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var count int64
		require.NoError(t, srv.DB.Model(&models.Feedback{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("dining keyword fallthrough", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/feedback/contextual", map[string]interface{}{
			"context":        map[string]string{"loc": "dining_table", "id": "12"},
			"foodQuality":    5,
			"diningComments": "the soup was broken and cold",
		}, "")
		require.Equal(t, http.StatusCreated, rec.Code)

		var created models.Feedback
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.True(t, created.IsNegative)
		assert.Equal(t, "dining_table", created.ContextLoc)
		assert.Equal(t, "dining_table", created.FeedbackArea)
	})

	t.Run("token is single use", func(t *testing.T) {
		tok, err := srv.Tokens.Issue(context.Background(), tokens.IssueRequest{Loc: "room", ID: "305", GuestName: "Luis"})
		require.NoError(t, err)

		payload := map[string]interface{}{
			"context":         map[string]string{"loc": "room", "token": tok.Token},
			"roomCleanliness": 4,
			"roomComments":    "Great view and comfortable bed",
		}
		rec := doJSON(t, srv, http.MethodPost, "/feedback/contextual", payload, "")
		require.Equal(t, http.StatusCreated, rec.Code)

		var created models.Feedback
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.False(t, created.IsNegative)
		assert.Equal(t, "305", created.ContextID)
		assert.Equal(t, "Luis", created.ContextGuestName)

		rec = doJSON(t, srv, http.MethodPost, "/feedback/contextual", payload, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("token issued elsewhere is rejected", func(t *testing.T) {
		tok, err := srv.Tokens.Issue(context.Background(), tokens.IssueRequest{Loc: "room", ID: "305"})
		require.NoError(t, err)

		var before int64
		require.NoError(t, srv.DB.Model(&models.Feedback{}).Count(&before).Error)

		rec := doJSON(t, srv, http.MethodPost, "/feedback/contextual", map[string]interface{}{
			"context":       map[string]string{"loc": "checkout", "id": "999", "token": tok.Token},
			"checkoutSpeed": 1,
		}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var after int64
		require.NoError(t, srv.DB.Model(&models.Feedback{}).Count(&after).Error)
		assert.Equal(t, before, after)

		rec = doJSON(t, srv, http.MethodGet, "/feedback/validate-token?tok="+tok.Token+"&loc=room&id=305", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestListFeedback_Authorization(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	createTestUser(t, srv.DB, "frontdesk", "password123", models.RoleStaff)
	staff := login(t, srv, "frontdesk", "password123")

	rec := doJSON(t, srv, http.MethodGet, "/feedback", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/feedback", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/feedback", nil, staff["accessToken"])
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListFeedback_Order(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	createTestUser(t, srv.DB, "manager", "password123", models.RoleAdmin)
	admin := login(t, srv, "manager", "password123")

	base := time.Now().Add(-time.Hour).UTC()
	for i, offset := range []int{5, 1, 30, 12} {
		rating := i + 1
		fb := &models.Feedback{
			Source:    models.SourceGuest,
			Rating:    &rating,
			Timestamp: base.Add(time.Duration(offset) * time.Minute),
		}
		require.NoError(t, srv.DB.Create(fb).Error)
	}

	rec := doJSON(t, srv, http.MethodGet, "/feedback", nil, admin["accessToken"])
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 4)
	for i := 1; i < len(listed); i++ {
		assert.False(t, listed[i].Timestamp.After(listed[i-1].Timestamp), "records must be newest first")
	}
}

func TestValidateToken(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	createTestUser(t, srv.DB, "frontdesk", "password123", models.RoleStaff)
	staff := login(t, srv, "frontdesk", "password123")

	rec := doJSON(t, srv, http.MethodPost, "/feedback/tokens", map[string]string{"loc": "room", "id": "204", "guestName": "Ana"}, staff["accessToken"])
	require.Equal(t, http.StatusCreated, rec.Code)

	var issued models.SubmissionToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	require.NotEmpty(t, issued.Token)
	assert.Equal(t, "frontdesk", issued.CreatedBy)

	rec = doJSON(t, srv, http.MethodGet, "/feedback/validate-token?tok="+issued.Token+"&loc=room&id=204", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res tokens.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	require.NotNil(t, res.Context)
	assert.Equal(t, "Ana", res.Context.GuestName)

	rec = doJSON(t, srv, http.MethodGet, "/feedback/validate-token?tok=unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)

	rec = doJSON(t, srv, http.MethodGet, "/feedback/validate-token", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/feedback/tokens", map[string]string{"loc": "room"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	rec := doJSON(t, srv, http.MethodPost, "/auth/register", map[string]string{"username": "housekeeping", "password": "password123"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.Empty(t, user.Password)

	var stored models.User
	require.NoError(t, srv.DB.Where("username = ?", "housekeeping").First(&stored).Error)
	assert.NotEqual(t, "password123", stored.HashedPassword)

	rec = doJSON(t, srv, http.MethodPost, "/auth/register", map[string]string{"username": "housekeeping", "password": "password456"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/auth/register", map[string]string{"username": "x", "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 40 runes but 80 bytes
	rec = doJSON(t, srv, http.MethodPost, "/auth/register", map[string]string{"username": "concierge", "password": strings.Repeat("ñ", 40)}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "72 bytes")

	staff := login(t, srv, "housekeeping", "password123")
	assert.Equal(t, "staff", staff["role"])
	assert.NotEmpty(t, staff["accessToken"])
	assert.NotEmpty(t, staff["refreshToken"])

	rec = doJSON(t, srv, http.MethodPost, "/auth/login", map[string]string{"username": "housekeeping", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	t.Run("admin accounts need an admin", func(t *testing.T) {
		payload := map[string]string{"username": "gm", "password": "password123", "role": "admin"}

		rec := doJSON(t, srv, http.MethodPost, "/auth/register", payload, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, srv, http.MethodPost, "/auth/register", payload, staff["accessToken"])
		assert.Equal(t, http.StatusForbidden, rec.Code)

		createTestUser(t, srv.DB, "owner", "password123", models.RoleAdmin)
		admin := login(t, srv, "owner", "password123")
		rec = doJSON(t, srv, http.MethodPost, "/auth/register", payload, admin["accessToken"])
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("refresh", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": staff["refreshToken"]}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["accessToken"])

		rec = doJSON(t, srv, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": "unknown"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired refresh token is deleted", func(t *testing.T) {
		expired := &models.RefreshToken{UserID: user.ID, ExpiresAt: time.Now().Add(-time.Minute)}
		require.NoError(t, srv.DB.Create(expired).Error)

		rec := doJSON(t, srv, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": expired.Token}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var count int64
		require.NoError(t, srv.DB.Model(&models.RefreshToken{}).Where("token = ?", expired.Token).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("logout", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/auth/logout", map[string]string{"refreshToken": staff["refreshToken"]}, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, srv, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": staff["refreshToken"]}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRegister_AdminOnly(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()
	srv.Config.Auth.AdminOnlyRegistration = true

	payload := map[string]string{"username": "housekeeping", "password": "password123"}

	rec := doJSON(t, srv, http.MethodPost, "/auth/register", payload, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	createTestUser(t, srv.DB, "frontdesk", "password123", models.RoleStaff)
	staff := login(t, srv, "frontdesk", "password123")
	rec = doJSON(t, srv, http.MethodPost, "/auth/register", payload, staff["accessToken"])
	assert.Equal(t, http.StatusForbidden, rec.Code)

	createTestUser(t, srv.DB, "owner", "password123", models.RoleAdmin)
	admin := login(t, srv, "owner", "password123")
	rec = doJSON(t, srv, http.MethodPost, "/auth/register", payload, admin["accessToken"])
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestChat_NotConfigured(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	createTestUser(t, srv.DB, "frontdesk", "password123", models.RoleStaff)
	staff := login(t, srv, "frontdesk", "password123")

	rec := doJSON(t, srv, http.MethodPost, "/chat/message", map[string]string{"message": ""}, staff["accessToken"])
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/chat/message", map[string]string{"message": "How are we doing?"}, staff["accessToken"])
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChat_RequiresLogin(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	rec := doJSON(t, srv, http.MethodPost, "/chat/message", map[string]string{"message": "Summarize today's complaints"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/chat/message", map[string]string{"message": "Summarize today's complaints"}, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
