package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apierrors "github.com/smartduck/ducktodo/internal/errors"
)

var (
	ErrUsernameRequired   = apierrors.New(apierrors.KindInvalidInput, "username is required")
	ErrUsernameTaken      = apierrors.New(apierrors.KindConflict, "username already exists")
	ErrInvalidCredentials = apierrors.New(apierrors.KindInvalidCredentials, "invalid username or password")
	ErrPasswordTooShort   = apierrors.New(apierrors.KindInvalidInput, "password too short")
	ErrUserNotFound       = apierrors.New(apierrors.KindNotFound, "user not found")
	ErrInvalidEmail       = apierrors.New(apierrors.KindInvalidInput, "email is not a valid address")
	ErrInvalidPhone       = apierrors.New(apierrors.KindInvalidInput, "phone must be 11 digits")
	ErrEmailTaken         = apierrors.New(apierrors.KindConflict, "email already in use")
	ErrPhoneTaken         = apierrors.New(apierrors.KindConflict, "phone already in use")
	ErrWrongPassword      = apierrors.New(apierrors.KindInvalidInput, "current password is incorrect")
)

var (
	ErrNotAuthorized           = apierrors.New(apierrors.KindUnauthorized, "you do not have the required role")
	ErrInvalidRole             = apierrors.New(apierrors.KindInvalidInput, "role must be manager or member")
	ErrCannotInviteYourself    = apierrors.New(apierrors.KindInvalidInput, "cannot invite yourself")
	ErrAlreadyMember           = apierrors.New(apierrors.KindConflict, "user is already a member")
	ErrMemberNotFound          = apierrors.New(apierrors.KindNotFound, "membership not found")
	ErrInvalidTransition       = apierrors.New(apierrors.KindInvalidTransition, "membership status does not allow this operation")
	ErrMemberNotActive         = apierrors.New(apierrors.KindInvalidTransition, "membership is not active")
	ErrCannotChangeOwnRole     = apierrors.New(apierrors.KindInvalidInput, "cannot change your own role")
	ErrCannotChangeOwnerRole   = apierrors.New(apierrors.KindUnauthorized, "the owner's role cannot be changed")
	ErrOwnerCannotLeave        = apierrors.New(apierrors.KindUnauthorized, "the owner cannot leave")
	ErrCannotRemoveOwner       = apierrors.New(apierrors.KindUnauthorized, "the owner cannot be removed")
	ErrSameMembership          = apierrors.New(apierrors.KindInvalidInput, "cannot reorder a membership with itself")
	ErrEqualDisplayOrder       = apierrors.New(apierrors.KindConflict, "memberships already share the same display order")
	ErrInvalidColor            = apierrors.New(apierrors.KindInvalidInput, "color must look like #RRGGBB")
	ErrInvalidInvitationStatus = apierrors.New(apierrors.KindInvalidInput, "invitation status must be inviting or rejected")
)

var (
	ErrTeamNotFound             = apierrors.New(apierrors.KindNotFound, "team not found")
	ErrInvalidTeamName          = apierrors.New(apierrors.KindInvalidInput, "team name must have at least 2 characters")
	ErrTeamNameTaken            = apierrors.New(apierrors.KindConflict, "team name already exists")
	ErrInvalidTeamStatus        = apierrors.New(apierrors.KindInvalidInput, "invalid team status")
	ErrGroupNotFound            = apierrors.New(apierrors.KindNotFound, "task group not found")
	ErrInvalidGroupName         = apierrors.New(apierrors.KindInvalidInput, "task group name must have at least 2 characters")
	ErrTeamGroupNotDeletable    = apierrors.New(apierrors.KindConflict, "team task groups are deleted with their team")
	ErrDefaultGroupNotDeletable = apierrors.New(apierrors.KindConflict, "the default task group cannot be deleted")
)

var (
	ErrTaskNotFound           = apierrors.New(apierrors.KindNotFound, "task not found")
	ErrChildTaskNotFound      = apierrors.New(apierrors.KindNotFound, "child task not found")
	ErrAssistantNotFound      = apierrors.New(apierrors.KindNotFound, "assistant not found")
	ErrFileNotFound           = apierrors.New(apierrors.KindNotFound, "file not found")
	ErrNodeNotFound           = apierrors.New(apierrors.KindNotFound, "graph node not found")
	ErrNoTaskAccess           = apierrors.New(apierrors.KindUnauthorized, "you are not part of this task")
	ErrNotTaskOwner           = apierrors.New(apierrors.KindUnauthorized, "only the task owner can do this")
	ErrInvalidTaskName        = apierrors.New(apierrors.KindInvalidInput, "task name must have at least 2 characters")
	ErrInvalidChildTaskName   = apierrors.New(apierrors.KindInvalidInput, "child task name is required")
	ErrInvalidTaskStatus      = apierrors.New(apierrors.KindInvalidInput, "invalid task status")
	ErrInvalidPriority        = apierrors.New(apierrors.KindInvalidInput, "priority must be between 0 and 4")
	ErrDueDateRequired        = apierrors.New(apierrors.KindInvalidInput, "due date is required")
	ErrDueDateInPast          = apierrors.New(apierrors.KindInvalidInput, "due date cannot be in the past")
	ErrDueBeforeStart         = apierrors.New(apierrors.KindInvalidInput, "due date cannot be before start date")
	ErrChildDueAfterParent    = apierrors.New(apierrors.KindInvalidInput, "child task due date cannot be after the task due date")
	ErrPrivateGroupHelpers    = apierrors.New(apierrors.KindInvalidInput, "tasks in a private group cannot have helpers")
	ErrHelperNotMember        = apierrors.New(apierrors.KindInvalidInput, "helpers must be members of the task group")
	ErrInvalidAssignee        = apierrors.New(apierrors.KindInvalidInput, "assignee must be the task owner or an assistant")
	ErrOwnerAssistantship     = apierrors.New(apierrors.KindConflict, "the task owner cannot be removed from the task")
	ErrAssistantHasChildTasks = apierrors.New(apierrors.KindBlockedByDependency, "assistant is still assigned to child tasks")
	ErrChildOrderMismatch     = apierrors.New(apierrors.KindInvalidInput, "child task order must list every child task exactly once")
	ErrFileNameRequired       = apierrors.New(apierrors.KindInvalidInput, "file name is required")
	ErrInvalidNodeAnchor      = apierrors.New(apierrors.KindInvalidInput, "a graph node must be anchored to exactly one entity")
	ErrNodeNameRequired       = apierrors.New(apierrors.KindInvalidInput, "graph node name is required")
)

// notFoundOr maps gorm.ErrRecordNotFound to notFound and wraps anything else.
func notFoundOr(err error, notFound error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
