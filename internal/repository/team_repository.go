package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/models"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a new team
func (r *GormTeamRepository) Create(team *models.Team) error {
	return errors.WithStack(r.db.Create(team).Error)
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(id string) (*models.Team, error) {
	var team models.Team
	if err := r.db.Where("id = ?", id).First(&team).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &team, nil
}

// FindByIDs loads the given teams, skipping deleted ones
func (r *GormTeamRepository) FindByIDs(ids []string) ([]models.Team, error) {
	var teams []models.Team
	if len(ids) == 0 {
		return teams, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&teams).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return teams, nil
}

// Update applies the given column changes to a team
func (r *GormTeamRepository) Update(id string, fields map[string]any) error {
	return errors.WithStack(r.db.Model(&models.Team{}).Where("id = ?", id).Updates(fields).Error)
}

// NameTaken reports whether another live team already uses name
func (r *GormTeamRepository) NameTaken(name, excludeID string) (bool, error) {
	query := r.db.Model(&models.Team{}).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, errors.WithStack(err)
	}
	return count > 0, nil
}

// GormTaskGroupRepository is a GORM implementation of TaskGroupRepository
type GormTaskGroupRepository struct {
	db *gorm.DB
}

// NewTaskGroupRepository creates a new TaskGroupRepository
func NewTaskGroupRepository(db *gorm.DB) TaskGroupRepository {
	return &GormTaskGroupRepository{db: db}
}

// Create creates a new task group
func (r *GormTaskGroupRepository) Create(group *models.TaskGroup) error {
	return errors.WithStack(r.db.Create(group).Error)
}

// FindByID finds a task group by ID
func (r *GormTaskGroupRepository) FindByID(id string) (*models.TaskGroup, error) {
	var group models.TaskGroup
	if err := r.db.Where("id = ?", id).First(&group).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &group, nil
}

// FindByIDs loads the given groups, skipping deleted ones
func (r *GormTaskGroupRepository) FindByIDs(ids []string) ([]models.TaskGroup, error) {
	var groups []models.TaskGroup
	if len(ids) == 0 {
		return groups, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return groups, nil
}

// ListByTeam lists the groups owned by a team
func (r *GormTaskGroupRepository) ListByTeam(teamID string) ([]models.TaskGroup, error) {
	var groups []models.TaskGroup
	if err := r.db.Where("team_id = ?", teamID).Order("created_at ASC").Find(&groups).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return groups, nil
}

// Update applies the given column changes to a group
func (r *GormTaskGroupRepository) Update(id string, fields map[string]any) error {
	return errors.WithStack(r.db.Model(&models.TaskGroup{}).Where("id = ?", id).Updates(fields).Error)
}
