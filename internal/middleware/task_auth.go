package middleware

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/services"
)

// RequireTaskAccess checks that the user holds an assistantship on the task
// named by the :id parameter. Tasks the user cannot see are reported as not
// found.
func RequireTaskAccess(authz *services.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		ok, err := authz.HasTaskAccess(c.Request.Context(), c.Param("id"), userID)
		if err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}
		if !ok {
			// 404 instead of 403 to avoid leaking task existence
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Next()
	}
}
