package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

// RequireRoles lets through only users whose role is listed. It must run
// after AuthMiddleware.
func RequireRoles(allowedRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Error(utils.NewAuthError("Not authorized to access this route"))
			c.Abort()
			return
		}

		for _, allowed := range allowedRoles {
			if user.Role == allowed {
				c.Next()
				return
			}
		}

		c.Error(utils.NewForbiddenError("User role %s is not authorized to access this route", user.Role))
		c.Abort()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}
