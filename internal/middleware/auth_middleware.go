// auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"order-fulfillment-service/internal/dto"
	"order-fulfillment-service/internal/service"

	"github.com/gin-gonic/gin"
)

// TokenValidator is what the auth middleware needs from the auth service.
type TokenValidator interface {
	ValidateToken(token string) (*service.AuthUser, error)
}

// AuthMiddleware validates the Bearer token and stores the caller's
// identity in the request context.
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, dto.Fail("missing authorization header"))
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)
		user, err := auth.ValidateToken(token)

		if err != nil {
			c.JSON(http.StatusUnauthorized, dto.Fail("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("userID", user.ID)
		c.Set("userName", user.Name)
		c.Set("userPermissions", user.Permissions)
		c.Next()
	}
}
