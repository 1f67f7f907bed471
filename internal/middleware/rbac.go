package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// RequireRoles admits a request only when its token carries one of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		if !allowed[claims.Role] {
			abort(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not manage timetables"))
			return
		}
		c.Next()
	}
}
