package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartduck/ducktodo/internal/constants"
	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/utils"
)

// MembershipService drives the invitation state machine for team and task
// group memberships.
type MembershipService struct {
	store *repository.Store
	log   logrus.FieldLogger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(store *repository.Store, log logrus.FieldLogger) *MembershipService {
	return &MembershipService{store: store, log: log}
}

// InviteInput represents an invitation of TargetUserID by ActorID.
type InviteInput struct {
	Scope        models.Scope
	EntityID     string
	ActorID      string
	TargetUserID string
	Role         models.Role
}

// Invite creates an Inviting membership for the target, or refreshes an
// existing invitation. A rejected invitation is reopened with the new role.
func (s *MembershipService) Invite(ctx context.Context, input InviteInput) (*models.Member, error) {
	if !input.Role.Invitable() {
		return nil, ErrInvalidRole
	}
	if input.ActorID == input.TargetUserID {
		return nil, ErrCannotInviteYourself
	}

	var result *models.Member
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		name, err := scopeName(tx, input.Scope, input.EntityID)
		if err != nil {
			return err
		}
		if err := ensureUserExists(tx, input.TargetUserID); err != nil {
			return err
		}
		if _, err := checkAccess(tx, input.Scope, input.EntityID, input.ActorID, RoleAtLeast(models.RoleManager)); err != nil {
			return err
		}

		members := tx.Members(input.Scope)
		existing, err := members.Find(input.EntityID, input.TargetUserID)
		if isNotFound(err) {
			result = &models.Member{
				Membership: models.Membership{
					UserID: input.TargetUserID,
					Role:   input.Role,
					Status: models.MemberStatusInviting,
					Color:  constants.DefaultColor,
				},
				Scope:   input.Scope,
				ScopeID: input.EntityID,
			}
			if input.Scope == models.ScopeGroup {
				result.Alias = name
			}
			if err := members.Create(result); err != nil {
				return fmt.Errorf("failed to create invitation: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find membership: %w", err)
		}

		fields := map[string]any{"role": input.Role}
		switch existing.Status {
		case models.MemberStatusNormal:
			return ErrAlreadyMember
		case models.MemberStatusRejected:
			if !existing.Status.CanTransition(models.MemberStatusInviting) {
				return ErrInvalidTransition
			}
			fields["status"] = models.MemberStatusInviting
			existing.Status = models.MemberStatusInviting
		}

		if err := members.Update(existing.ID, fields); err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}
		existing.Role = input.Role
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"scope":     input.Scope,
		"entity_id": input.EntityID,
		"actor_id":  input.ActorID,
		"user_id":   input.TargetUserID,
	}).Info("membership invitation sent")
	return result, nil
}

// Accept moves the user's invitation to Normal. Accepting a team invitation
// also grants a Normal membership on each of the team's task groups.
func (s *MembershipService) Accept(ctx context.Context, scope models.Scope, entityID, userID string) (*models.Member, error) {
	var result *models.Member
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		members := tx.Members(scope)
		member, err := members.Find(entityID, userID)
		if err != nil {
			return notFoundOr(err, ErrMemberNotFound, "find membership")
		}
		if member.Status == models.MemberStatusNormal {
			result = member
			return nil
		}
		if member.Status != models.MemberStatusInviting || !member.Status.CanTransition(models.MemberStatusNormal) {
			return ErrInvalidTransition
		}

		order, err := nextDisplayOrder(members, userID)
		if err != nil {
			return err
		}
		now := time.Now()
		err = members.Update(member.ID, map[string]any{
			"status":        models.MemberStatusNormal,
			"joined_at":     now,
			"display_order": order,
		})
		if err != nil {
			return fmt.Errorf("failed to accept invitation: %w", err)
		}
		member.Status = models.MemberStatusNormal
		member.JoinedAt = &now
		member.DisplayOrder = &order

		if scope == models.ScopeTeam {
			if err := grantTeamGroups(tx, entityID, member); err != nil {
				return err
			}
		}

		result = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// grantTeamGroups mirrors an active team membership onto the team's groups.
func grantTeamGroups(tx *repository.Store, teamID string, member *models.Member) error {
	groups, err := tx.Groups.ListByTeam(teamID)
	if err != nil {
		return fmt.Errorf("failed to list team groups: %w", err)
	}

	for _, group := range groups {
		existing, err := tx.GroupMembers.Find(group.ID, member.UserID)
		switch {
		case isNotFound(err):
			order, err := nextDisplayOrder(tx.GroupMembers, member.UserID)
			if err != nil {
				return err
			}
			now := time.Now()
			row := &models.Member{
				Membership: models.Membership{
					UserID:       member.UserID,
					Role:         member.Role,
					Status:       models.MemberStatusNormal,
					DisplayOrder: &order,
					Color:        constants.DefaultColor,
					JoinedAt:     &now,
				},
				Scope:   models.ScopeGroup,
				ScopeID: group.ID,
				Alias:   group.Name,
			}
			if err := tx.GroupMembers.Create(row); err != nil {
				return fmt.Errorf("failed to create group membership: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to find group membership: %w", err)
		case !existing.Active():
			// Rejected rows are back-filled too: the team decides group access.
			fields := map[string]any{
				"status": models.MemberStatusNormal,
				"role":   member.Role,
			}
			if existing.JoinedAt == nil {
				fields["joined_at"] = time.Now()
			}
			if existing.DisplayOrder == nil {
				order, err := nextDisplayOrder(tx.GroupMembers, member.UserID)
				if err != nil {
					return err
				}
				fields["display_order"] = order
			}
			if err := tx.GroupMembers.Update(existing.ID, fields); err != nil {
				return fmt.Errorf("failed to activate group membership: %w", err)
			}
		}
	}
	return nil
}

// Reject moves the user's invitation to Rejected.
func (s *MembershipService) Reject(ctx context.Context, scope models.Scope, entityID, userID string) (*models.Member, error) {
	var result *models.Member
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		members := tx.Members(scope)
		member, err := members.Find(entityID, userID)
		if err != nil {
			return notFoundOr(err, ErrMemberNotFound, "find membership")
		}
		if member.Status == models.MemberStatusRejected {
			result = member
			return nil
		}
		if member.Status != models.MemberStatusInviting || !member.Status.CanTransition(models.MemberStatusRejected) {
			return ErrInvalidTransition
		}

		if err := members.Update(member.ID, map[string]any{"status": models.MemberStatusRejected}); err != nil {
			return fmt.Errorf("failed to reject invitation: %w", err)
		}
		member.Status = models.MemberStatusRejected
		result = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ChangeRoleInput represents a role change of TargetUserID by ActorID.
type ChangeRoleInput struct {
	Scope        models.Scope
	EntityID     string
	ActorID      string
	TargetUserID string
	Role         models.Role
}

// ChangeRole switches an active member between Manager and Member.
func (s *MembershipService) ChangeRole(ctx context.Context, input ChangeRoleInput) (*models.Member, error) {
	if !input.Role.Invitable() {
		return nil, ErrInvalidRole
	}
	if input.ActorID == input.TargetUserID {
		return nil, ErrCannotChangeOwnRole
	}

	var result *models.Member
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := checkAccess(tx, input.Scope, input.EntityID, input.ActorID, RoleAtLeast(models.RoleManager)); err != nil {
			return err
		}

		members := tx.Members(input.Scope)
		target, err := members.Find(input.EntityID, input.TargetUserID)
		if err != nil {
			return notFoundOr(err, ErrMemberNotFound, "find membership")
		}
		if target.Role == models.RoleOwner {
			return ErrCannotChangeOwnerRole
		}
		if !target.Active() {
			return ErrMemberNotActive
		}

		if err := members.Update(target.ID, map[string]any{"role": input.Role}); err != nil {
			return fmt.Errorf("failed to change role: %w", err)
		}
		target.Role = input.Role
		result = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveMemberInput represents the removal of TargetUserID by ActorID.
// ActorID equal to TargetUserID means leaving.
type RemoveMemberInput struct {
	Scope        models.Scope
	EntityID     string
	ActorID      string
	TargetUserID string
}

// RemoveMember deletes a membership. Removing a team member also removes the
// user's memberships on the team's task groups.
func (s *MembershipService) RemoveMember(ctx context.Context, input RemoveMemberInput) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		actor, err := checkAccess(tx, input.Scope, input.EntityID, input.ActorID, nil)
		if err != nil {
			return err
		}

		members := tx.Members(input.Scope)
		if input.ActorID == input.TargetUserID {
			if actor.Role == models.RoleOwner {
				return ErrOwnerCannotLeave
			}
		} else {
			if !actor.Role.AtLeast(models.RoleManager) {
				return ErrNotAuthorized
			}
			target, err := members.Find(input.EntityID, input.TargetUserID)
			if err != nil {
				return notFoundOr(err, ErrMemberNotFound, "find membership")
			}
			if target.Role == models.RoleOwner {
				return ErrCannotRemoveOwner
			}
		}

		if err := members.Delete(input.EntityID, input.TargetUserID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		if input.Scope == models.ScopeTeam {
			groups, err := tx.Groups.ListByTeam(input.EntityID)
			if err != nil {
				return fmt.Errorf("failed to list team groups: %w", err)
			}
			groupIDs := make([]string, 0, len(groups))
			for _, g := range groups {
				groupIDs = append(groupIDs, g.ID)
			}
			if err := tx.GroupMembers.DeleteInScopes(groupIDs, input.TargetUserID); err != nil {
				return fmt.Errorf("failed to remove group memberships: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"scope":     input.Scope,
		"entity_id": input.EntityID,
		"actor_id":  input.ActorID,
		"user_id":   input.TargetUserID,
	}).Info("member removed")
	return nil
}

// ReorderInput swaps the display order of UserID's memberships on two teams
// or two task groups. FirstID and SecondID are entity IDs.
type ReorderInput struct {
	Scope    models.Scope
	UserID   string
	FirstID  string
	SecondID string
}

// Reorder swaps the display order of two active memberships held by the user.
// Rows without an order are first placed after the user's current maximum.
func (s *MembershipService) Reorder(ctx context.Context, input ReorderInput) ([]models.Member, error) {
	if input.FirstID == input.SecondID {
		return nil, ErrSameMembership
	}

	var result []models.Member
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		members := tx.Members(input.Scope)
		first, err := ownActiveMembership(members, input.FirstID, input.UserID)
		if err != nil {
			return err
		}
		second, err := ownActiveMembership(members, input.SecondID, input.UserID)
		if err != nil {
			return err
		}

		if first.DisplayOrder != nil && second.DisplayOrder != nil && *first.DisplayOrder == *second.DisplayOrder {
			return ErrEqualDisplayOrder
		}

		maxOrder, err := members.MaxDisplayOrder(input.UserID)
		if err != nil {
			return fmt.Errorf("failed to read display order: %w", err)
		}
		firstOrder, secondOrder := orderOrNext(first.DisplayOrder, &maxOrder), orderOrNext(second.DisplayOrder, &maxOrder)

		if err := members.Update(first.ID, map[string]any{"display_order": secondOrder}); err != nil {
			return fmt.Errorf("failed to reorder membership: %w", err)
		}
		if err := members.Update(second.ID, map[string]any{"display_order": firstOrder}); err != nil {
			return fmt.Errorf("failed to reorder membership: %w", err)
		}
		first.DisplayOrder, second.DisplayOrder = &secondOrder, &firstOrder

		result = []models.Member{*first, *second}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func ownActiveMembership(members repository.MembershipRepository, entityID, userID string) (*models.Member, error) {
	member, err := members.Find(entityID, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound, "find membership")
	}
	if !member.Active() {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// orderOrNext returns order, or the next value past *maxOrder, advancing it.
func orderOrNext(order *int, maxOrder *int) int {
	if order != nil {
		return *order
	}
	*maxOrder++
	return *maxOrder
}

// nextDisplayOrder places a new membership after every order the user holds,
// so gaps left by departures never produce duplicates.
func nextDisplayOrder(members repository.MembershipRepository, userID string) (int, error) {
	maxOrder, err := members.MaxDisplayOrder(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read display order: %w", err)
	}
	return maxOrder + 1, nil
}

// UpdateColor sets the color the user shows for one of their memberships.
func (s *MembershipService) UpdateColor(ctx context.Context, scope models.Scope, entityID, userID, color string) (*models.Member, error) {
	if !utils.IsHexColor(color) {
		return nil, ErrInvalidColor
	}

	store := s.store.WithContext(ctx)
	member, err := checkAccess(store, scope, entityID, userID, nil)
	if err != nil {
		return nil, err
	}
	if err := store.Members(scope).Update(member.ID, map[string]any{"color": color}); err != nil {
		return nil, fmt.Errorf("failed to update color: %w", err)
	}
	member.Color = color
	return member, nil
}

// ListMine lists the user's active memberships in display order.
func (s *MembershipService) ListMine(ctx context.Context, scope models.Scope, userID string) ([]models.Member, error) {
	members, err := s.store.WithContext(ctx).Members(scope).ListActiveByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return members, nil
}

// ListByEntity lists an entity's memberships for a user with access to it.
func (s *MembershipService) ListByEntity(ctx context.Context, scope models.Scope, entityID, actorID string, params utils.PaginationParams) ([]models.Member, int64, error) {
	store := s.store.WithContext(ctx)
	if _, err := checkAccess(store, scope, entityID, actorID, nil); err != nil {
		return nil, 0, err
	}
	members, total, err := store.Members(scope).ListByScope(entityID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}
	return members, total, nil
}

// Invitation is a pending or declined membership with the name of its entity.
type Invitation struct {
	Membership models.Member
	Name       string
}

// ListInvitations lists the user's Inviting or Rejected rows in a scope,
// most recently changed first. Rows whose entity is gone are skipped.
func (s *MembershipService) ListInvitations(ctx context.Context, scope models.Scope, userID string, status models.MemberStatus) ([]Invitation, error) {
	if status != models.MemberStatusInviting && status != models.MemberStatusRejected {
		return nil, ErrInvalidInvitationStatus
	}

	store := s.store.WithContext(ctx)
	rows, err := store.Members(scope).ListByUserAndStatus(userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	invitations := make([]Invitation, 0, len(rows))
	for _, row := range rows {
		name, err := scopeName(store, scope, row.ScopeID)
		if apierrors.IsKind(err, apierrors.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, Invitation{Membership: row, Name: name})
	}
	return invitations, nil
}
