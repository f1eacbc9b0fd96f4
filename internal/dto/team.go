package dto

import (
	"time"

	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/services"
	"github.com/smartduck/ducktodo/internal/utils"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Avatar      string            `json:"avatar"`
	Status      models.TeamStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TaskGroupDTO represents a task group in API responses
type TaskGroupDTO struct {
	ID          string             `json:"id"`
	TeamID      string             `json:"team_id,omitempty"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Status      models.GroupStatus `json:"status"`
	Private     bool               `json:"private"`
}

// MemberDTO represents a team or task group membership
type MemberDTO struct {
	ID           string              `json:"id"`
	Scope        models.Scope        `json:"scope"`
	ScopeID      string              `json:"scope_id"`
	UserID       string              `json:"user_id"`
	Role         models.Role         `json:"role"`
	RoleName     string              `json:"role_name"`
	Status       models.MemberStatus `json:"status"`
	StatusName   string              `json:"status_name"`
	DisplayOrder *int                `json:"display_order"`
	Color        string              `json:"color"`
	Alias        string              `json:"alias,omitempty"`
	JoinedAt     *time.Time          `json:"joined_at"`
}

// MyTeamDTO represents a team together with the caller's membership
type MyTeamDTO struct {
	TeamDTO
	Membership MemberDTO `json:"membership"`
}

// MyGroupDTO represents a task group together with the caller's membership
type MyGroupDTO struct {
	TaskGroupDTO
	Membership MemberDTO `json:"membership"`
}

// CreatedTeamDTO is returned after a team is created
type CreatedTeamDTO struct {
	Team  TeamDTO      `json:"team"`
	Group TaskGroupDTO `json:"group"`
}

// MemberListResponse represents a paginated list of memberships
type MemberListResponse struct {
	Members    []MemberDTO              `json:"members"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		Avatar:      team.Avatar,
		Status:      team.Status,
		CreatedAt:   team.CreatedAt,
	}
}

// ToTaskGroupDTO converts a TaskGroup model to TaskGroupDTO
func ToTaskGroupDTO(group models.TaskGroup) TaskGroupDTO {
	return TaskGroupDTO{
		ID:          group.ID,
		TeamID:      group.TeamID,
		Name:        group.Name,
		Description: group.Description,
		Status:      group.Status,
		Private:     group.IsPrivate(),
	}
}

// ToMemberDTO converts a membership to MemberDTO
func ToMemberDTO(member models.Member) MemberDTO {
	return MemberDTO{
		ID:           member.ID,
		Scope:        member.Scope,
		ScopeID:      member.ScopeID,
		UserID:       member.UserID,
		Role:         member.Role,
		RoleName:     member.Role.String(),
		Status:       member.Status,
		StatusName:   member.Status.String(),
		DisplayOrder: member.DisplayOrder,
		Color:        member.Color,
		Alias:        member.Alias,
		JoinedAt:     member.JoinedAt,
	}
}

// ToMemberDTOs converts a slice of memberships
func ToMemberDTOs(members []models.Member) []MemberDTO {
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = ToMemberDTO(m)
	}
	return dtos
}

// ToMyTeamDTOs converts the caller's teams
func ToMyTeamDTOs(teams []services.MyTeam) []MyTeamDTO {
	dtos := make([]MyTeamDTO, len(teams))
	for i, t := range teams {
		dtos[i] = MyTeamDTO{
			TeamDTO:    ToTeamDTO(t.Team),
			Membership: ToMemberDTO(t.Membership),
		}
	}
	return dtos
}

// ToMyGroupDTOs converts the caller's task groups
func ToMyGroupDTOs(groups []services.MyGroup) []MyGroupDTO {
	dtos := make([]MyGroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = MyGroupDTO{
			TaskGroupDTO: ToTaskGroupDTO(g.Group),
			Membership:   ToMemberDTO(g.Membership),
		}
	}
	return dtos
}

// InvitationDTO represents an invitation together with the invited entity's name
type InvitationDTO struct {
	Name       string    `json:"name"`
	Membership MemberDTO `json:"membership"`
}

// ToInvitationDTOs converts a slice of invitations
func ToInvitationDTOs(invitations []services.Invitation) []InvitationDTO {
	dtos := make([]InvitationDTO, len(invitations))
	for i, inv := range invitations {
		dtos[i] = InvitationDTO{Name: inv.Name, Membership: ToMemberDTO(inv.Membership)}
	}
	return dtos
}
