package repository

import (
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// Exists reports whether a live user with the given ID exists
	Exists(id string) (bool, error)

	// Update applies the given column changes to a user
	Update(id string, fields map[string]any) error

	// EmailInUse reports whether another user already has the email
	EmailInUse(email, exceptID string) (bool, error)

	// PhoneInUse reports whether another user already has the phone number
	PhoneInUse(phone, exceptID string) (bool, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a new team
	Create(team *models.Team) error

	// FindByID finds a team by ID
	FindByID(id string) (*models.Team, error)

	// FindByIDs loads the given teams, skipping deleted ones
	FindByIDs(ids []string) ([]models.Team, error)

	// Update applies the given column changes to a team
	Update(id string, fields map[string]any) error

	// NameTaken reports whether another live team already uses name
	NameTaken(name, excludeID string) (bool, error)
}

// TaskGroupRepository defines the interface for task group data access
type TaskGroupRepository interface {
	// Create creates a new task group
	Create(group *models.TaskGroup) error

	// FindByID finds a task group by ID
	FindByID(id string) (*models.TaskGroup, error)

	// FindByIDs loads the given groups, skipping deleted ones
	FindByIDs(ids []string) ([]models.TaskGroup, error)

	// ListByTeam lists the groups owned by a team
	ListByTeam(teamID string) ([]models.TaskGroup, error)

	// Update applies the given column changes to a group
	Update(id string, fields map[string]any) error
}

// MembershipRepository is the relation store for one membership table.
// Rows are exchanged as scope-neutral models.Member values.
type MembershipRepository interface {
	// Scope reports which membership table this repository serves
	Scope() models.Scope

	// Create inserts a membership row
	Create(member *models.Member) error

	// Find finds the row binding userID to scopeID
	Find(scopeID, userID string) (*models.Member, error)

	// FindByID finds a row by its own ID
	FindByID(id string) (*models.Member, error)

	// Update applies the given column changes to a row
	Update(id string, fields map[string]any) error

	// Delete soft deletes the row binding userID to scopeID
	Delete(scopeID, userID string) error

	// DeleteInScopes soft deletes userID's rows across the given scopes
	DeleteInScopes(scopeIDs []string, userID string) error


	// MaxDisplayOrder returns the largest display order among userID's rows
	MaxDisplayOrder(userID string) (int, error)

	// ListByScope lists the rows of a scope, oldest first
	ListByScope(scopeID string, params utils.PaginationParams) ([]models.Member, int64, error)

	// ListActiveByUser lists userID's Normal rows by display order
	ListActiveByUser(userID string) ([]models.Member, error)

	// ListByUserAndStatus lists userID's rows in the given status, most recently updated first
	ListByUserAndStatus(userID string, status models.MemberStatus) ([]models.Member, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id string) (*models.Task, error)

	// Exists reports whether a live task with the given ID exists
	Exists(id string) (bool, error)

	// Update applies the given column changes to a task
	Update(id string, fields map[string]any) error

	// ListByAssistant lists the tasks userID holds any assistantship on
	ListByAssistant(userID string) ([]models.Task, error)
}

// ChildTaskRepository defines the interface for child task data access
type ChildTaskRepository interface {
	// CreateBatch creates child tasks in order
	CreateBatch(children []models.ChildTask) error

	// FindByID finds a child task by ID
	FindByID(id string) (*models.ChildTask, error)

	// FindByIDUnscoped finds a child task by ID including deleted rows
	FindByIDUnscoped(id string) (*models.ChildTask, error)

	// ListByTask lists the children of a task by index
	ListByTask(taskID string) ([]models.ChildTask, error)

	// CountByTask counts the live children of a task
	CountByTask(taskID string) (int64, error)

	// CountAssignedTo counts a task's live children assigned to userID
	CountAssignedTo(taskID, userID string) (int64, error)

	// Update applies the given column changes to a child task
	Update(id string, fields map[string]any) error

	// SetIndices rewrites sort indices so that ids[i] gets i+1
	SetIndices(ids []string) error
}

// TaskAssistantRepository defines the interface for task assistantship data access
type TaskAssistantRepository interface {
	// Create creates assistantship rows
	Create(assistants ...*models.TaskAssistant) error

	// Find finds the row binding userID to taskID
	Find(taskID, userID string) (*models.TaskAssistant, error)

	// ListByTask lists a task's assistantships, owner first
	ListByTask(taskID string) ([]models.TaskAssistant, error)

	// Delete soft deletes a row by ID
	Delete(id string) error
}

// TaskFileRepository defines the interface for task attachment data access
type TaskFileRepository interface {
	// Create creates an attachment row
	Create(file *models.TaskFile) error

	// FindByID finds an attachment by ID
	FindByID(id string) (*models.TaskFile, error)

	// ListByTask lists a task's attachments
	ListByTask(taskID string) ([]models.TaskFile, error)

	// Delete soft deletes an attachment by ID
	Delete(id string) error
}

// GraphRepository defines the interface for task graph data access
type GraphRepository interface {
	// CreateNode creates a graph node
	CreateNode(node *models.TaskNode) error

	// FindNode finds a graph node by ID
	FindNode(id string) (*models.TaskNode, error)

	// CreateEdge creates a graph edge
	CreateEdge(edge *models.TaskEdge) error

	// ListNodesByTask lists the nodes anchored to a task
	ListNodesByTask(taskID string) ([]models.TaskNode, error)
}

// AuditRepository defines the interface for the task audit trail
type AuditRepository interface {
	// Create appends an audit record
	Create(record *models.TaskAudit) error

	// ListByTask lists a task's audit records, newest first
	ListByTask(taskID string) ([]models.TaskAudit, error)
}
