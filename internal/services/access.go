package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
)

// Authorizer answers the access questions every operation starts with.
type Authorizer struct {
	store *repository.Store
}

// NewAuthorizer creates a new Authorizer.
func NewAuthorizer(store *repository.Store) *Authorizer {
	return &Authorizer{store: store}
}

// RoleAtLeast is a convenience for the optional minRole arguments.
func RoleAtLeast(role models.Role) *models.Role {
	return &role
}

// HasAccess reports whether userID holds a Normal membership on the entity
// and, when minRole is given, whether that membership's role reaches it.
func (a *Authorizer) HasAccess(ctx context.Context, scope models.Scope, entityID, userID string, minRole *models.Role) (bool, error) {
	_, err := checkAccess(a.store.WithContext(ctx), scope, entityID, userID, minRole)
	if errors.Is(err, ErrNotAuthorized) {
		return false, nil
	}
	return err == nil, err
}

// CheckAccess is HasAccess returning the membership or ErrNotAuthorized.
func (a *Authorizer) CheckAccess(ctx context.Context, scope models.Scope, entityID, userID string, minRole *models.Role) (*models.Member, error) {
	return checkAccess(a.store.WithContext(ctx), scope, entityID, userID, minRole)
}

// HasTaskAccess reports whether userID holds any assistantship on the task.
func (a *Authorizer) HasTaskAccess(ctx context.Context, taskID, userID string) (bool, error) {
	_, err := checkTaskAccess(a.store.WithContext(ctx), taskID, userID)
	if errors.Is(err, ErrNoTaskAccess) {
		return false, nil
	}
	return err == nil, err
}

func checkAccess(store *repository.Store, scope models.Scope, entityID, userID string, minRole *models.Role) (*models.Member, error) {
	member, err := store.Members(scope).Find(entityID, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrNotAuthorized, "find membership")
	}
	if !member.Active() {
		return nil, ErrNotAuthorized
	}
	if minRole != nil && !member.Role.AtLeast(*minRole) {
		return nil, ErrNotAuthorized
	}
	return member, nil
}

func checkTaskAccess(store *repository.Store, taskID, userID string) (*models.TaskAssistant, error) {
	assistant, err := store.Assistants.Find(taskID, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrNoTaskAccess, "find assistant")
	}
	if assistant.Status != models.MemberStatusNormal {
		return nil, ErrNoTaskAccess
	}
	return assistant, nil
}

// scopeName loads the team or task group behind a membership scope.
func scopeName(store *repository.Store, scope models.Scope, entityID string) (string, error) {
	if scope == models.ScopeGroup {
		group, err := store.Groups.FindByID(entityID)
		if err != nil {
			return "", notFoundOr(err, ErrGroupNotFound, "find task group")
		}
		return group.Name, nil
	}

	team, err := store.Teams.FindByID(entityID)
	if err != nil {
		return "", notFoundOr(err, ErrTeamNotFound, "find team")
	}
	return team.Name, nil
}

func ensureUserExists(store *repository.Store, userID string) error {
	ok, err := store.Users.Exists(userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
