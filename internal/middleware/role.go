package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/response"
)

// RequireRole lets through callers whose token role is one of roles. It must run after JWT.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserRole); !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role := models.Role(c.GetString(ContextUserRole))
		if !slices.Contains(roles, role) {
			response.Forbidden(c, "role "+string(role)+" may not manage live sessions")
			c.Abort()
			return
		}
		c.Next()
	}
}
