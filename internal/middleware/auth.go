package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trainingdesk/internal/pkg/jwt"
	"trainingdesk/internal/pkg/response"
)

// JWTAuth validates the bearer token and exposes user_id and role on the context.
// Who may do what is decided elsewhere; this only establishes identity.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be: Bearer <token>")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
