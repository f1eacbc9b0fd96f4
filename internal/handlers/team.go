package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartduck/ducktodo/internal/dto"
	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/services"
	"github.com/smartduck/ducktodo/internal/utils"
)

// TeamHandler serves team endpoints.
type TeamHandler struct {
	teams *services.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teams *services.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

// CreateTeam creates a team with its task group
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type InviteRequest struct {
		UserID string      `json:"user_id" binding:"required"`
		Role   models.Role `json:"role"`
	}
	type CreateTeamRequest struct {
		Name        string             `json:"name" binding:"required"`
		Description string             `json:"description"`
		Avatar      string             `json:"avatar"`
		Status      *models.TeamStatus `json:"status"`
		Invites     []InviteRequest    `json:"invites"`
	}

	var req CreateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	invites := make([]services.MemberInvite, len(req.Invites))
	for i, inv := range req.Invites {
		invites[i] = services.MemberInvite{UserID: inv.UserID, Role: inv.Role}
	}

	result, err := h.teams.CreateTeam(c.Request.Context(), services.CreateTeamInput{
		ActorID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		Status:      req.Status,
		Invites:     invites,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedTeamDTO{
		Team:  dto.ToTeamDTO(*result.Team),
		Group: dto.ToTaskGroupDTO(*result.Group),
	})
}

// ListTeams returns the teams the user is an active member of
func (h *TeamHandler) ListTeams(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	teams, err := h.teams.ListMyTeams(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": dto.ToMyTeamDTOs(teams),
	})
}

// GetTeam returns team details
func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	team, err := h.teams.GetTeam(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

// UpdateTeam updates team fields; only the owner may do this
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateTeamRequest struct {
		Name        *string            `json:"name"`
		Description *string            `json:"description"`
		Avatar      *string            `json:"avatar"`
		Status      *models.TeamStatus `json:"status"`
	}

	var req UpdateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teams.UpdateTeam(c.Request.Context(), services.UpdateTeamInput{
		ActorID:     userID,
		TeamID:      c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		Status:      req.Status,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

// DeleteTeam deletes a team and everything under it
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.teams.DeleteTeam(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Team deleted successfully",
	})
}

// LeaveTeam removes the caller from the team
func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.teams.LeaveTeam(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Left team successfully",
	})
}

// ListMembers returns a page of the team's memberships
func (h *TeamHandler) ListMembers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	members, total, err := h.teams.ListMembers(c.Request.Context(), userID, c.Param("id"), params)
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
