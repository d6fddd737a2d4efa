package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	token, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTManager("other", time.Minute).GenerateAccessToken("user-1")
		require.NoError(t, err)
		_, err = m.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewJWTManager("secret", -time.Minute).GenerateAccessToken("user-1")
		require.NoError(t, err)
		_, err = m.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("no subject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = m.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ParseAndValidate("not.a.token")
		assert.Error(t, err)
	})
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Minute)

	r := gin.New()
	r.GET("/me", AuthRequired(m), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	token, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "user-1", w.Body.String())
			}
		})
	}
}
