package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartduck/ducktodo/internal/dto"
	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/services"
)

// GroupHandler serves task group endpoints.
type GroupHandler struct {
	groups *services.TaskGroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups *services.TaskGroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// CreateGroup creates a private task group
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateGroupRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groups.CreatePrivateGroup(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskGroupDTO(*group))
}

// ListGroups returns the groups the user is an active member of
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	groups, err := h.groups.ListMyGroups(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": dto.ToMyGroupDTOs(groups),
	})
}

// GetGroup returns task group details
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskGroupDTO(*group))
}

// UpdateGroup updates the group or the caller's alias for it
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateGroupRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Alias       *string `json:"alias"`
	}

	var req UpdateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groups.UpdateGroup(c.Request.Context(), services.UpdateGroupInput{
		ActorID:     userID,
		GroupID:     c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Alias:       req.Alias,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskGroupDTO(*group))
}

// DeleteGroup deletes a private task group and its tasks
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.groups.DeletePrivateGroup(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task group deleted successfully",
	})
}
