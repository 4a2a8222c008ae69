package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/travelsuite/bus-booking-backend/pkg/jwt"
)

// OperatorContextKey is the key used to store operator information in Gin context
const OperatorContextKey = "operator"

// OperatorContext represents the authenticated operator's information
type OperatorContext struct {
	OperatorID uuid.UUID `json:"operator_id"`
	Username   string    `json:"username"`
}

// OperatorAuth creates a middleware that validates operator JWT tokens
func OperatorAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Invalid or expired access token",
			})
			c.Abort()
			return
		}

		c.Set(OperatorContextKey, OperatorContext{
			OperatorID: claims.OperatorID,
			Username:   claims.Username,
		})
		c.Next()
	}
}

// GetOperatorContext retrieves the operator context from the Gin context
func GetOperatorContext(c *gin.Context) (OperatorContext, bool) {
	value, exists := c.Get(OperatorContextKey)
	if !exists {
		return OperatorContext{}, false
	}
	ctx, ok := value.(OperatorContext)
	return ctx, ok
}
