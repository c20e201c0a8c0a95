package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"trainingdesk/internal/pkg/jwt"
)

func protectedRouter(t *testing.T, jwtService *jwt.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(JWTAuth(jwtService))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetInt64("user_id"),
			"role":    c.GetString("role"),
		})
	})
	return router
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", time.Hour, "trainingdesk")
	validToken, _ := jwtService.GenerateToken(42, jwt.RoleTrainer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	protectedRouter(t, jwtService).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
	assert.Contains(t, w.Body.String(), jwt.RoleTrainer)
}

func TestJWTAuth_Rejections(t *testing.T) {
	jwtService := jwt.New("secret", time.Hour, "trainingdesk")

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"no header", "", "AUTH_HEADER_MISSING"},
		{"basic scheme", "Basic dGVzdA==", "INVALID_AUTH_FORMAT"},
		{"bearer without token", "Bearer ", "INVALID_AUTH_FORMAT"},
		{"garbage token", "Bearer invalid-jwt-here", "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			protectedRouter(t, jwtService).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}
