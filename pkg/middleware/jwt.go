package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pStore/pkg/errors"
	"github.com/sukryu/pStore/pkg/utils/jwt"
)

// JWTAuth guards mutating routes: requests must carry a bearer token
// issued by the auth handler. On success the claims are exposed to
// handlers via the context.
func JWTAuth(jwtManager *jwt.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "bearer token required")
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("roles", claims.Roles)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    http.StatusUnauthorized,
			"message": errors.ErrInvalidToken.Message,
			"reason":  reason,
		},
	})
}
