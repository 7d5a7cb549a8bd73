package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-admin-token"

func init() {
	gin.SetMode(gin.TestMode)
}

func testTokenConfig(required bool) *AdminTokenConfig {
	return &AdminTokenConfig{
		Secret:   testSecret,
		Issuer:   "take-a-number-test",
		TTL:      time.Hour,
		Required: required,
	}
}

func setupTestRouter(config *AdminTokenConfig) *gin.Engine {
	router := gin.New()
	router.Use(AdminTokenMiddleware(config))
	router.GET("/events/:id/admin", func(c *gin.Context) {
		eventID, _ := GetAdminEventID(c)
		c.JSON(http.StatusOK, gin.H{
			"admin_event_id": eventID,
			"allowed":        CanAdminister(c, config, c.Param("id")),
		})
	})
	return router
}

func doGet(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIssueAndParseAdminToken(t *testing.T) {
	cfg := testTokenConfig(false)

	token, expiresAt, err := IssueAdminToken(cfg, "event-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ParseAdminToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "event-1", claims.EventID)
	assert.Equal(t, "take-a-number-test", claims.Issuer)
}

func TestParseAdminToken_Rejects(t *testing.T) {
	cfg := testTokenConfig(false)

	t.Run("wrong secret", func(t *testing.T) {
		other := &AdminTokenConfig{Secret: "other", Issuer: cfg.Issuer, TTL: time.Hour}
		token, _, err := IssueAdminToken(other, "event-1")
		require.NoError(t, err)
		_, err = ParseAdminToken(cfg, token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := &AdminTokenConfig{Secret: testSecret, Issuer: "someone-else", TTL: time.Hour}
		token, _, err := IssueAdminToken(other, "event-1")
		require.NoError(t, err)
		_, err = ParseAdminToken(cfg, token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := AdminClaims{
			EventID: "event-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = ParseAdminToken(cfg, token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("missing event id", func(t *testing.T) {
		claims := AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = ParseAdminToken(cfg, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAdminTokenMiddleware_Optional(t *testing.T) {
	cfg := testTokenConfig(false)
	router := setupTestRouter(cfg)

	t.Run("no token passes through", func(t *testing.T) {
		w := doGet(router, "/events/event-1/admin", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["allowed"])
		assert.Equal(t, "", body["admin_event_id"])
	})

	t.Run("valid token sets event", func(t *testing.T) {
		token, _, err := IssueAdminToken(cfg, "event-1")
		require.NoError(t, err)

		w := doGet(router, "/events/event-1/admin", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "event-1", body["admin_event_id"])
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		w := doGet(router, "/events/event-1/admin", "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		w := doGet(router, "/events/event-1/admin", "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminTokenMiddleware_Required(t *testing.T) {
	cfg := testTokenConfig(true)
	router := setupTestRouter(cfg)

	t.Run("missing token", func(t *testing.T) {
		w := doGet(router, "/events/event-1/admin", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_TOKEN")
	})

	t.Run("token for same event", func(t *testing.T) {
		token, _, err := IssueAdminToken(cfg, "event-1")
		require.NoError(t, err)

		w := doGet(router, "/events/event-1/admin", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"allowed":true`)
	})

	t.Run("token for other event", func(t *testing.T) {
		token, _, err := IssueAdminToken(cfg, "event-2")
		require.NoError(t, err)

		w := doGet(router, "/events/event-1/admin", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"allowed":false`)
	})
}
