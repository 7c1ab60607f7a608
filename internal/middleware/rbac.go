package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-calculator-api/internal/models"
	appErrors "github.com/noah-isme/grade-calculator-api/pkg/errors"
	"github.com/noah-isme/grade-calculator-api/pkg/response"
)

// RequireRoles only lets requests through whose claims carry one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
