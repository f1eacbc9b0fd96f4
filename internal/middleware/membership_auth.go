package middleware

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/services"
)

// RequireMembership checks that the user holds an active membership on the
// team or task group named by the :id parameter. A non-nil minRole also
// requires that role or a stronger one.
func RequireMembership(authz *services.Authorizer, scope models.Scope, minRole *models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if _, err := authz.CheckAccess(c.Request.Context(), scope, c.Param("id"), userID, minRole); err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
