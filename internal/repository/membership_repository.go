package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/database"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/utils"
)

type memberRow interface {
	models.TeamMember | models.GroupMember
}

// GormMembershipRepository implements MembershipRepository for one membership
// table. T selects the table; scopeColumn names its scope foreign key.
type GormMembershipRepository[T memberRow] struct {
	db          *gorm.DB
	scope       models.Scope
	scopeColumn string
	toMember    func(*T) *models.Member
	fromMember  func(*models.Member) *T
}

// NewTeamMemberRepository creates the relation store for team memberships
func NewTeamMemberRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository[models.TeamMember]{
		db:          db,
		scope:       models.ScopeTeam,
		scopeColumn: "team_id",
		toMember:    (*models.TeamMember).ToMember,
		fromMember:  models.NewTeamMember,
	}
}

// NewGroupMemberRepository creates the relation store for task group memberships
func NewGroupMemberRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository[models.GroupMember]{
		db:          db,
		scope:       models.ScopeGroup,
		scopeColumn: "task_group_id",
		toMember:    (*models.GroupMember).ToMember,
		fromMember:  models.NewGroupMember,
	}
}

// Scope reports which membership table this repository serves
func (r *GormMembershipRepository[T]) Scope() models.Scope {
	return r.scope
}

// Create inserts a membership row and copies the generated fields back
func (r *GormMembershipRepository[T]) Create(member *models.Member) error {
	row := r.fromMember(member)
	if err := r.db.Create(row).Error; err != nil {
		return errors.WithStack(err)
	}
	*member = *r.toMember(row)
	return nil
}

// Find finds the row binding userID to scopeID
func (r *GormMembershipRepository[T]) Find(scopeID, userID string) (*models.Member, error) {
	var row T
	err := r.db.Where(r.scopeColumn+" = ? AND user_id = ?", scopeID, userID).First(&row).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return r.toMember(&row), nil
}

// FindByID finds a row by its own ID
func (r *GormMembershipRepository[T]) FindByID(id string) (*models.Member, error) {
	var row T
	if err := r.db.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return r.toMember(&row), nil
}

// Update applies the given column changes to a row
func (r *GormMembershipRepository[T]) Update(id string, fields map[string]any) error {
	return errors.WithStack(r.db.Model(new(T)).Where("id = ?", id).Updates(fields).Error)
}

// Delete soft deletes the row binding userID to scopeID
func (r *GormMembershipRepository[T]) Delete(scopeID, userID string) error {
	err := r.db.Where(r.scopeColumn+" = ? AND user_id = ?", scopeID, userID).Delete(new(T)).Error
	return errors.WithStack(err)
}

// DeleteInScopes soft deletes userID's rows across the given scopes
func (r *GormMembershipRepository[T]) DeleteInScopes(scopeIDs []string, userID string) error {
	if len(scopeIDs) == 0 {
		return nil
	}
	err := r.db.Where(r.scopeColumn+" IN ? AND user_id = ?", scopeIDs, userID).Delete(new(T)).Error
	return errors.WithStack(err)
}

// MaxDisplayOrder returns the largest display order among userID's rows
func (r *GormMembershipRepository[T]) MaxDisplayOrder(userID string) (int, error) {
	var maxOrder int
	err := r.db.Model(new(T)).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return maxOrder, nil
}

// ListByScope lists the rows of a scope, oldest first
func (r *GormMembershipRepository[T]) ListByScope(scopeID string, params utils.PaginationParams) ([]models.Member, int64, error) {
	query := r.db.Model(new(T)).Where(r.scopeColumn+" = ?", scopeID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	var rows []T
	if err := query.Order("created_at ASC").Scopes(database.Paginate(params)).Find(&rows).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return r.toMembers(rows), total, nil
}

// ListActiveByUser lists userID's Normal rows by display order
func (r *GormMembershipRepository[T]) ListActiveByUser(userID string) ([]models.Member, error) {
	var rows []T
	err := r.db.Where("user_id = ? AND status = ?", userID, models.MemberStatusNormal).
		Order("display_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return r.toMembers(rows), nil
}

// ListByUserAndStatus lists userID's rows in the given status, most recently updated first
func (r *GormMembershipRepository[T]) ListByUserAndStatus(userID string, status models.MemberStatus) ([]models.Member, error) {
	var rows []T
	err := r.db.Where("user_id = ? AND status = ?", userID, status).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return r.toMembers(rows), nil
}

func (r *GormMembershipRepository[T]) toMembers(rows []T) []models.Member {
	members := make([]models.Member, 0, len(rows))
	for i := range rows {
		members = append(members, *r.toMember(&rows[i]))
	}
	return members
}
