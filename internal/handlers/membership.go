package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smartduck/ducktodo/internal/dto"
	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/services"
	"github.com/smartduck/ducktodo/internal/utils"
)

// MembershipHandler serves the membership endpoints of one scope. The same
// handler type is mounted under /teams and /groups.
type MembershipHandler struct {
	members *services.MembershipService
	scope   models.Scope
}

// NewMembershipHandler creates a MembershipHandler for scope.
func NewMembershipHandler(members *services.MembershipService, scope models.Scope) *MembershipHandler {
	return &MembershipHandler{members: members, scope: scope}
}

type roleRequest struct {
	Role *models.Role `json:"role" binding:"required"`
}

// ListMembers returns the memberships of an entity
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	members, total, err := h.members.ListByEntity(c.Request.Context(), h.scope, c.Param("id"), userID, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MemberListResponse{
		Members: dto.ToMemberDTOs(members),
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListInvitations returns the caller's invitations in this scope. The optional
// status query selects Inviting (default) or Rejected rows.
func (h *MembershipHandler) ListInvitations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := strconv.Atoi(c.DefaultQuery("status", strconv.Itoa(int(models.MemberStatusInviting))))
	if err != nil {
		apierrors.Respond(c, services.ErrInvalidInvitationStatus)
		return
	}

	invitations, err := h.members.ListInvitations(c.Request.Context(), h.scope, userID, models.MemberStatus(status))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": dto.ToInvitationDTOs(invitations),
	})
}

// Invite invites the user named by :user_id
func (h *MembershipHandler) Invite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.members.Invite(c.Request.Context(), services.InviteInput{
		Scope:        h.scope,
		EntityID:     c.Param("id"),
		ActorID:      userID,
		TargetUserID: c.Param("user_id"),
		Role:         *req.Role,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMemberDTO(*member))
}

// Accept accepts the caller's invitation
func (h *MembershipHandler) Accept(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	member, err := h.members.Accept(c.Request.Context(), h.scope, c.Param("id"), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// Reject rejects the caller's invitation
func (h *MembershipHandler) Reject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	member, err := h.members.Reject(c.Request.Context(), h.scope, c.Param("id"), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// ChangeRole changes the role of the member named by :user_id
func (h *MembershipHandler) ChangeRole(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.members.ChangeRole(c.Request.Context(), services.ChangeRoleInput{
		Scope:        h.scope,
		EntityID:     c.Param("id"),
		ActorID:      userID,
		TargetUserID: c.Param("user_id"),
		Role:         *req.Role,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// RemoveMember removes the member named by :user_id
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	err := h.members.RemoveMember(c.Request.Context(), services.RemoveMemberInput{
		Scope:        h.scope,
		EntityID:     c.Param("id"),
		ActorID:      userID,
		TargetUserID: c.Param("user_id"),
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// UpdateColor sets the caller's color for an entity
func (h *MembershipHandler) UpdateColor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type ColorRequest struct {
		Color string `json:"color" binding:"required"`
	}

	var req ColorRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.members.UpdateColor(c.Request.Context(), h.scope, c.Param("id"), userID, req.Color)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// Reorder swaps the display order of the caller's memberships on two entities
func (h *MembershipHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type ReorderRequest struct {
		FirstID  string `json:"first_id" binding:"required"`
		SecondID string `json:"second_id" binding:"required"`
	}

	var req ReorderRequest
	if !bindJSON(c, &req) {
		return
	}

	members, err := h.members.Reorder(c.Request.Context(), services.ReorderInput{
		Scope:    h.scope,
		UserID:   userID,
		FirstID:  req.FirstID,
		SecondID: req.SecondID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": dto.ToMemberDTOs(members),
	})
}
