package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func serveAuth(secret, header string) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	var seen *gin.Context
	r := gin.New()
	r.GET("/api/me", AuthMiddleware(secret), func(c *gin.Context) {
		seen = c
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w, seen
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	account := uuid.New()
	token, err := GenerateToken(account, "maya@salon.test", testSecret, time.Hour)
	require.NoError(t, err)

	w, c := serveAuth(testSecret, "Bearer "+token)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, c)

	got, ok := AccountID(c)
	assert.True(t, ok)
	assert.Equal(t, account, got)
	assert.Equal(t, "maya@salon.test", c.GetString(ContextEmail))
}

func TestAuthMiddlewareRejects(t *testing.T) {
	valid, err := GenerateToken(uuid.New(), "maya@salon.test", testSecret, time.Hour)
	require.NoError(t, err)
	otherSecret, err := GenerateToken(uuid.New(), "maya@salon.test", "another-secret", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(uuid.New(), "maya@salon.test", testSecret, -time.Minute)
	require.NoError(t, err)
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-a-uuid",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		header string
	}{
		{"missing header", testSecret, ""},
		{"wrong secret", testSecret, "Bearer " + otherSecret},
		{"expired", testSecret, "Bearer " + expired},
		{"non uuid subject", testSecret, "Bearer " + badSubject},
		{"garbage", testSecret, "Bearer abc.def.ghi"},
		{"unconfigured secret", "", "Bearer " + valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := serveAuth(tt.secret, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Nil(t, c)
			assert.Contains(t, w.Body.String(), ErrCodeUnauthorized)
		})
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken(uuid.New(), "maya@salon.test", "", time.Hour)
	assert.Error(t, err)
}

func TestTokenHashRoundTrip(t *testing.T) {
	token, err := RandomToken(24)
	require.NoError(t, err)
	hash, err := HashToken(token)
	require.NoError(t, err)
	assert.True(t, CheckTokenHash(token, hash))
	assert.False(t, CheckTokenHash(token+"x", hash))
}
