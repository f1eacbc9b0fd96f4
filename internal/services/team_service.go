package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartduck/ducktodo/internal/cascade"
	"github.com/smartduck/ducktodo/internal/constants"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/utils"
)

// TeamService provides business logic for team operations.
type TeamService struct {
	store   *repository.Store
	members *MembershipService
	cascade *cascade.Engine
	log     logrus.FieldLogger
}

// NewTeamService creates a new TeamService.
func NewTeamService(store *repository.Store, members *MembershipService, engine *cascade.Engine, log logrus.FieldLogger) *TeamService {
	return &TeamService{
		store:   store,
		members: members,
		cascade: engine,
		log:     log,
	}
}

// MemberInvite names a user to invite while creating a team.
type MemberInvite struct {
	UserID string
	Role   models.Role
}

// CreateTeamInput represents parameters to create a new team.
type CreateTeamInput struct {
	ActorID     string
	Name        string
	Description string
	Avatar      string
	Status      *models.TeamStatus
	Invites     []MemberInvite
}

// CreateTeamResult is the new team together with its task group.
type CreateTeamResult struct {
	Team  *models.Team
	Group *models.TaskGroup
	Owner *models.Member
}

// CreateTeam creates a team and its task group, makes the actor Owner of both
// and records Inviting memberships for the invited users.
func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*CreateTeamResult, error) {
	name, ok := utils.NormalizeName(input.Name, constants.MinNameLength)
	if !ok {
		return nil, ErrInvalidTeamName
	}
	status := models.TeamStatusInProgress
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTeamStatus
		}
		status = *input.Status
	}
	for _, invite := range input.Invites {
		if !invite.Role.Invitable() {
			return nil, ErrInvalidRole
		}
	}

	result := &CreateTeamResult{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		taken, err := tx.Teams.NameTaken(name, "")
		if err != nil {
			return fmt.Errorf("failed to check team name: %w", err)
		}
		if taken {
			return ErrTeamNameTaken
		}

		team := &models.Team{
			Name:        name,
			Description: input.Description,
			Avatar:      input.Avatar,
			Status:      status,
		}
		if err := tx.Teams.Create(team); err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}

		group := &models.TaskGroup{
			TeamID:      team.ID,
			Name:        name + constants.TeamGroupSuffix,
			Description: fmt.Sprintf("基于团队项目：%s构建的任务族", name),
			Status:      models.GroupStatusNormal,
		}
		if err := tx.Groups.Create(group); err != nil {
			return fmt.Errorf("failed to create team group: %w", err)
		}

		owner, err := createOwnerMembership(tx.TeamMembers, team.ID, input.ActorID, "")
		if err != nil {
			return err
		}
		if _, err := createOwnerMembership(tx.GroupMembers, group.ID, input.ActorID, group.Name); err != nil {
			return err
		}

		seen := map[string]struct{}{input.ActorID: {}}
		for _, invite := range input.Invites {
			if _, ok := seen[invite.UserID]; ok || invite.UserID == "" {
				continue
			}
			seen[invite.UserID] = struct{}{}

			if err := ensureUserExists(tx, invite.UserID); err != nil {
				return err
			}
			err := tx.TeamMembers.Create(&models.Member{
				Membership: models.Membership{
					UserID: invite.UserID,
					Role:   invite.Role,
					Status: models.MemberStatusInviting,
					Color:  constants.DefaultColor,
				},
				Scope:   models.ScopeTeam,
				ScopeID: team.ID,
			})
			if err != nil {
				return fmt.Errorf("failed to invite member: %w", err)
			}
		}

		result.Team, result.Group, result.Owner = team, group, owner
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"team_id": result.Team.ID, "actor_id": input.ActorID}).Info("team created")
	return result, nil
}

// createOwnerMembership grants userID the Owner role on a freshly created entity.
func createOwnerMembership(members repository.MembershipRepository, scopeID, userID, alias string) (*models.Member, error) {
	order, err := nextDisplayOrder(members, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	owner := &models.Member{
		Membership: models.Membership{
			UserID:       userID,
			Role:         models.RoleOwner,
			Status:       models.MemberStatusNormal,
			DisplayOrder: &order,
			Color:        constants.DefaultColor,
			JoinedAt:     &now,
		},
		Scope:   members.Scope(),
		ScopeID: scopeID,
		Alias:   alias,
	}
	if err := members.Create(owner); err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}
	return owner, nil
}

// GetTeam returns a team the actor is an active member of.
func (s *TeamService) GetTeam(ctx context.Context, actorID, teamID string) (*models.Team, error) {
	store := s.store.WithContext(ctx)
	team, err := store.Teams.FindByID(teamID)
	if err != nil {
		return nil, notFoundOr(err, ErrTeamNotFound, "find team")
	}
	if _, err := checkAccess(store, models.ScopeTeam, teamID, actorID, nil); err != nil {
		return nil, err
	}
	return team, nil
}

// UpdateTeamInput represents a partial team update; nil fields are unchanged.
type UpdateTeamInput struct {
	ActorID     string
	TeamID      string
	Name        *string
	Description *string
	Avatar      *string
	Status      *models.TeamStatus
}

// UpdateTeam updates a team. Only the owner may do this.
func (s *TeamService) UpdateTeam(ctx context.Context, input UpdateTeamInput) (*models.Team, error) {
	var team *models.Team
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		team, err = tx.Teams.FindByID(input.TeamID)
		if err != nil {
			return notFoundOr(err, ErrTeamNotFound, "find team")
		}
		if _, err := checkAccess(tx, models.ScopeTeam, input.TeamID, input.ActorID, RoleAtLeast(models.RoleOwner)); err != nil {
			return err
		}

		fields := map[string]any{}
		if input.Name != nil {
			name, ok := utils.NormalizeName(*input.Name, constants.MinNameLength)
			if !ok {
				return ErrInvalidTeamName
			}
			if name != team.Name {
				taken, err := tx.Teams.NameTaken(name, team.ID)
				if err != nil {
					return fmt.Errorf("failed to check team name: %w", err)
				}
				if taken {
					return ErrTeamNameTaken
				}
				fields["name"] = name
				team.Name = name
			}
		}
		if input.Description != nil && *input.Description != team.Description {
			fields["description"] = *input.Description
			team.Description = *input.Description
		}
		if input.Avatar != nil && *input.Avatar != team.Avatar {
			fields["avatar"] = *input.Avatar
			team.Avatar = *input.Avatar
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return ErrInvalidTeamStatus
			}
			if *input.Status != team.Status {
				fields["status"] = *input.Status
				team.Status = *input.Status
			}
		}

		if len(fields) == 0 {
			return nil
		}
		if err := tx.Teams.Update(team.ID, fields); err != nil {
			return fmt.Errorf("failed to update team: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam soft-deletes a team with everything under it. Only the owner may do this.
func (s *TeamService) DeleteTeam(ctx context.Context, actorID, teamID string) error {
	store := s.store.WithContext(ctx)
	if _, err := store.Teams.FindByID(teamID); err != nil {
		return notFoundOr(err, ErrTeamNotFound, "find team")
	}
	if _, err := checkAccess(store, models.ScopeTeam, teamID, actorID, RoleAtLeast(models.RoleOwner)); err != nil {
		return err
	}

	if err := s.cascade.DeleteSubtree(ctx, cascade.RootTeam, teamID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"team_id": teamID, "actor_id": actorID}).Info("team deleted")
	return nil
}

// MyTeam pairs a team with the caller's membership in it.
type MyTeam struct {
	Team       models.Team
	Membership models.Member
}

// ListMyTeams lists the teams the actor is an active member of, in display order.
func (s *TeamService) ListMyTeams(ctx context.Context, actorID string) ([]MyTeam, error) {
	store := s.store.WithContext(ctx)
	members, err := store.TeamMembers.ListActiveByUser(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team memberships: %w", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ScopeID)
	}
	teams, err := store.Teams.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	byID := make(map[string]models.Team, len(teams))
	for _, team := range teams {
		byID[team.ID] = team
	}

	result := make([]MyTeam, 0, len(members))
	for _, m := range members {
		team, ok := byID[m.ScopeID]
		if !ok {
			continue
		}
		result = append(result, MyTeam{Team: team, Membership: m})
	}
	return result, nil
}

// ListMembers lists a team's memberships for an active member.
func (s *TeamService) ListMembers(ctx context.Context, actorID, teamID string, params utils.PaginationParams) ([]models.Member, int64, error) {
	return s.members.ListByEntity(ctx, models.ScopeTeam, teamID, actorID, params)
}

// LeaveTeam removes the actor's own membership.
func (s *TeamService) LeaveTeam(ctx context.Context, actorID, teamID string) error {
	return s.members.RemoveMember(ctx, RemoveMemberInput{
		Scope:        models.ScopeTeam,
		EntityID:     teamID,
		ActorID:      actorID,
		TargetUserID: actorID,
	})
}
