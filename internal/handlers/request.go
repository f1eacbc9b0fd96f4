package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartduck/ducktodo/internal/dto"
	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/middleware"
)

// currentUser returns the authenticated user ID or writes a 401.
func currentUser(c *gin.Context) (string, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return "", false
	}
	return userID, true
}

// bindJSON binds the request body or writes a 400.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// dateFields parses optional YYYY-MM-DD request fields and remembers the
// first one that failed.
type dateFields struct {
	invalid string
}

func (d *dateFields) parse(name string, value *string) *time.Time {
	if value == nil || *value == "" || d.invalid != "" {
		return nil
	}
	t, err := time.ParseInLocation(dto.DateLayout, *value, time.Local)
	if err != nil {
		d.invalid = name
		return nil
	}
	return &t
}

// ok writes a 400 naming the bad field, if any.
func (d *dateFields) ok(c *gin.Context) bool {
	if d.invalid == "" {
		return true
	}
	apierrors.BadRequest(c, "Invalid "+d.invalid+", expected YYYY-MM-DD")
	return false
}
