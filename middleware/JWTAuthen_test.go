package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"todoapp/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accessRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/probe", AccessTokenMiddleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{"userId": c.MustGet("userId")})
	})
	return router
}

func TestAccessToken_MissingHeader(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	router := accessRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestAccessToken_InvalidToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	router := accessRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, 403, w.Code)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "signing-secret")
	token, err := services.CreateAccessToken("alice", "alice@example.com")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET_KEY", "different-secret")
	router := accessRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, 403, w.Code)
}

func TestAccessToken_ValidTokenSetsIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	token, err := services.CreateAccessToken("alice", "alice@example.com")
	require.NoError(t, err)
	router := accessRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"alice"`)
}

func TestRefreshToken_ValidToken(t *testing.T) {
	t.Setenv("JWT_REFRESH_SECRET_KEY", "refresh-secret")
	token, err := services.CreateRefreshToken("alice", "alice@example.com")
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/refresh", RefreshTokenMiddleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{"userId": c.MustGet("userId")})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"alice"`)
}
