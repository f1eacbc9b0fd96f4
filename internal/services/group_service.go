package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/smartduck/ducktodo/internal/cascade"
	"github.com/smartduck/ducktodo/internal/constants"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/utils"
)

// TaskGroupService provides business logic for task groups.
type TaskGroupService struct {
	store   *repository.Store
	cascade *cascade.Engine
	log     logrus.FieldLogger
}

// NewTaskGroupService creates a new TaskGroupService.
func NewTaskGroupService(store *repository.Store, engine *cascade.Engine, log logrus.FieldLogger) *TaskGroupService {
	return &TaskGroupService{store: store, cascade: engine, log: log}
}

// CreatePrivateGroup creates a group outside any team owned by the actor.
func (s *TaskGroupService) CreatePrivateGroup(ctx context.Context, actorID, name, description string) (*models.TaskGroup, error) {
	name, ok := utils.NormalizeName(name, constants.MinNameLength)
	if !ok {
		return nil, ErrInvalidGroupName
	}

	group := &models.TaskGroup{
		Name:        name,
		Description: description,
		Status:      models.GroupStatusNormal,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		return createPrivateGroup(tx, group, actorID)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func createPrivateGroup(tx *repository.Store, group *models.TaskGroup, ownerID string) error {
	if err := tx.Groups.Create(group); err != nil {
		return fmt.Errorf("failed to create task group: %w", err)
	}
	_, err := createOwnerMembership(tx.GroupMembers, group.ID, ownerID, group.Name)
	return err
}

// GetGroup returns a group the actor is an active member of.
func (s *TaskGroupService) GetGroup(ctx context.Context, actorID, groupID string) (*models.TaskGroup, error) {
	store := s.store.WithContext(ctx)
	group, err := store.Groups.FindByID(groupID)
	if err != nil {
		return nil, notFoundOr(err, ErrGroupNotFound, "find task group")
	}
	if _, err := checkAccess(store, models.ScopeGroup, groupID, actorID, nil); err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroupInput represents a partial group update; nil fields are unchanged.
// Alias is the caller's own label for the group.
type UpdateGroupInput struct {
	ActorID     string
	GroupID     string
	Name        *string
	Description *string
	Alias       *string
}

// UpdateGroup changes the group's name and description, which requires the
// Owner role, and the caller's alias, which any active member may set.
func (s *TaskGroupService) UpdateGroup(ctx context.Context, input UpdateGroupInput) (*models.TaskGroup, error) {
	var group *models.TaskGroup
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		group, err = tx.Groups.FindByID(input.GroupID)
		if err != nil {
			return notFoundOr(err, ErrGroupNotFound, "find task group")
		}
		member, err := checkAccess(tx, models.ScopeGroup, input.GroupID, input.ActorID, nil)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if input.Name != nil {
			name, ok := utils.NormalizeName(*input.Name, constants.MinNameLength)
			if !ok {
				return ErrInvalidGroupName
			}
			if name != group.Name {
				fields["name"] = name
				group.Name = name
			}
		}
		if input.Description != nil && *input.Description != group.Description {
			fields["description"] = *input.Description
			group.Description = *input.Description
		}
		if len(fields) > 0 {
			if member.Role != models.RoleOwner {
				return ErrNotAuthorized
			}
			if err := tx.Groups.Update(group.ID, fields); err != nil {
				return fmt.Errorf("failed to update task group: %w", err)
			}
		}

		if input.Alias != nil && *input.Alias != member.Alias {
			if err := tx.GroupMembers.Update(member.ID, map[string]any{"alias": *input.Alias}); err != nil {
				return fmt.Errorf("failed to update alias: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// DeletePrivateGroup soft-deletes a private group with all of its tasks.
// Team groups go with their team and the signup default group stays.
func (s *TaskGroupService) DeletePrivateGroup(ctx context.Context, actorID, groupID string) error {
	store := s.store.WithContext(ctx)
	group, err := store.Groups.FindByID(groupID)
	if err != nil {
		return notFoundOr(err, ErrGroupNotFound, "find task group")
	}
	if !group.IsPrivate() {
		return ErrTeamGroupNotDeletable
	}
	if group.Name == constants.DefaultGroupName {
		return ErrDefaultGroupNotDeletable
	}
	if _, err := checkAccess(store, models.ScopeGroup, groupID, actorID, RoleAtLeast(models.RoleOwner)); err != nil {
		return err
	}

	if err := s.cascade.DeleteSubtree(ctx, cascade.RootTaskGroup, groupID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"group_id": groupID, "actor_id": actorID}).Info("task group deleted")
	return nil
}

// MyGroup pairs a group with the caller's membership in it.
type MyGroup struct {
	Group      models.TaskGroup
	Membership models.Member
}

// ListMyGroups lists the groups the actor is an active member of, in display order.
func (s *TaskGroupService) ListMyGroups(ctx context.Context, actorID string) ([]MyGroup, error) {
	store := s.store.WithContext(ctx)
	members, err := store.GroupMembers.ListActiveByUser(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group memberships: %w", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ScopeID)
	}
	groups, err := store.Groups.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load task groups: %w", err)
	}
	byID := make(map[string]models.TaskGroup, len(groups))
	for _, group := range groups {
		byID[group.ID] = group
	}

	result := make([]MyGroup, 0, len(members))
	for _, m := range members {
		group, ok := byID[m.ScopeID]
		if !ok {
			continue
		}
		result = append(result, MyGroup{Group: group, Membership: m})
	}
	return result, nil
}
