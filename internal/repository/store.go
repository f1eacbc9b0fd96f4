package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/models"
)

// Store bundles every repository over one *gorm.DB so that a service can run
// several of them inside the same transaction.
type Store struct {
	db *gorm.DB

	Users        UserRepository
	Teams        TeamRepository
	Groups       TaskGroupRepository
	TeamMembers  MembershipRepository
	GroupMembers MembershipRepository
	Tasks        TaskRepository
	ChildTasks   ChildTaskRepository
	Assistants   TaskAssistantRepository
	Files        TaskFileRepository
	Graph        GraphRepository
	Audits       AuditRepository
}

// NewStore creates a Store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Users:        NewUserRepository(db),
		Teams:        NewTeamRepository(db),
		Groups:       NewTaskGroupRepository(db),
		TeamMembers:  NewTeamMemberRepository(db),
		GroupMembers: NewGroupMemberRepository(db),
		Tasks:        NewTaskRepository(db),
		ChildTasks:   NewChildTaskRepository(db),
		Assistants:   NewTaskAssistantRepository(db),
		Files:        NewTaskFileRepository(db),
		Graph:        NewGraphRepository(db),
		Audits:       NewAuditRepository(db),
	}
}

// DB exposes the underlying handle, bound to any transaction the Store runs in.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithContext returns a Store whose queries carry ctx.
func (s *Store) WithContext(ctx context.Context) *Store {
	return NewStore(s.db.WithContext(ctx))
}

// Transaction runs fn with a Store bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Members returns the relation store for scope.
func (s *Store) Members(scope models.Scope) MembershipRepository {
	if scope == models.ScopeGroup {
		return s.GroupMembers
	}
	return s.TeamMembers
}
