package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return errors.WithStack(r.db.Create(task).Error)
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &task, nil
}

// Exists reports whether a live task with the given ID exists
func (r *GormTaskRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.WithStack(err)
	}
	return count > 0, nil
}

// Update applies the given column changes to a task
func (r *GormTaskRepository) Update(id string, fields map[string]any) error {
	return errors.WithStack(r.db.Model(&models.Task{}).Where("id = ?", id).Updates(fields).Error)
}

// ListByAssistant lists the tasks userID holds any assistantship on
func (r *GormTaskRepository) ListByAssistant(userID string) ([]models.Task, error) {
	assistantSubQuery := r.db.Model(&models.TaskAssistant{}).
		Select("1").
		Where("task_assistants.task_id = tasks.id").
		Where("task_assistants.user_id = ?", userID).
		Where("task_assistants.deleted_at IS NULL")

	var tasks []models.Task
	err := r.db.Model(&models.Task{}).
		Where("EXISTS (?)", assistantSubQuery).
		Order("tasks.due_date ASC, tasks.priority ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return tasks, nil
}

// GormChildTaskRepository is a GORM implementation of ChildTaskRepository
type GormChildTaskRepository struct {
	db *gorm.DB
}

// NewChildTaskRepository creates a new ChildTaskRepository
func NewChildTaskRepository(db *gorm.DB) ChildTaskRepository {
	return &GormChildTaskRepository{db: db}
}

// CreateBatch creates child tasks in order
func (r *GormChildTaskRepository) CreateBatch(children []models.ChildTask) error {
	if len(children) == 0 {
		return nil
	}
	return errors.WithStack(r.db.Create(&children).Error)
}

// FindByID finds a child task by ID
func (r *GormChildTaskRepository) FindByID(id string) (*models.ChildTask, error) {
	var child models.ChildTask
	if err := r.db.Where("id = ?", id).First(&child).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &child, nil
}

// FindByIDUnscoped finds a child task by ID including deleted rows
func (r *GormChildTaskRepository) FindByIDUnscoped(id string) (*models.ChildTask, error) {
	var child models.ChildTask
	if err := r.db.Unscoped().Where("id = ?", id).First(&child).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &child, nil
}

// ListByTask lists the children of a task by index
func (r *GormChildTaskRepository) ListByTask(taskID string) ([]models.ChildTask, error) {
	var children []models.ChildTask
	if err := r.db.Where("task_id = ?", taskID).Order("sort_index ASC").Find(&children).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return children, nil
}

// CountByTask counts the live children of a task
func (r *GormChildTaskRepository) CountByTask(taskID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.ChildTask{}).Where("task_id = ?", taskID).Count(&count).Error; err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// CountAssignedTo counts a task's live children assigned to userID
func (r *GormChildTaskRepository) CountAssignedTo(taskID, userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChildTask{}).
		Where("task_id = ? AND assignee_id = ?", taskID, userID).
		Count(&count).Error
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// Update applies the given column changes to a child task
func (r *GormChildTaskRepository) Update(id string, fields map[string]any) error {
	return errors.WithStack(r.db.Model(&models.ChildTask{}).Where("id = ?", id).Updates(fields).Error)
}

// SetIndices rewrites sort indices so that ids[i] gets i+1
func (r *GormChildTaskRepository) SetIndices(ids []string) error {
	for i, id := range ids {
		err := r.db.Model(&models.ChildTask{}).Where("id = ?", id).Update("sort_index", i+1).Error
		if err != nil {
			return errors.Wrapf(err, "set index of child task %s", id)
		}
	}
	return nil
}

// GormTaskAssistantRepository is a GORM implementation of TaskAssistantRepository
type GormTaskAssistantRepository struct {
	db *gorm.DB
}

// NewTaskAssistantRepository creates a new TaskAssistantRepository
func NewTaskAssistantRepository(db *gorm.DB) TaskAssistantRepository {
	return &GormTaskAssistantRepository{db: db}
}

// Create creates assistantship rows
func (r *GormTaskAssistantRepository) Create(assistants ...*models.TaskAssistant) error {
	if len(assistants) == 0 {
		return nil
	}
	return errors.WithStack(r.db.Create(assistants).Error)
}

// Find finds the row binding userID to taskID
func (r *GormTaskAssistantRepository) Find(taskID, userID string) (*models.TaskAssistant, error) {
	var assistant models.TaskAssistant
	if err := r.db.Where("task_id = ? AND user_id = ?", taskID, userID).First(&assistant).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &assistant, nil
}

// ListByTask lists a task's assistantships, owner first
func (r *GormTaskAssistantRepository) ListByTask(taskID string) ([]models.TaskAssistant, error) {
	var assistants []models.TaskAssistant
	err := r.db.Where("task_id = ?", taskID).
		Order("CASE WHEN kind = 'owner' THEN 0 ELSE 1 END, created_at ASC").
		Find(&assistants).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return assistants, nil
}

// Delete soft deletes a row by ID
func (r *GormTaskAssistantRepository) Delete(id string) error {
	return errors.WithStack(r.db.Where("id = ?", id).Delete(&models.TaskAssistant{}).Error)
}

// GormTaskFileRepository is a GORM implementation of TaskFileRepository
type GormTaskFileRepository struct {
	db *gorm.DB
}

// NewTaskFileRepository creates a new TaskFileRepository
func NewTaskFileRepository(db *gorm.DB) TaskFileRepository {
	return &GormTaskFileRepository{db: db}
}

// Create creates an attachment row
func (r *GormTaskFileRepository) Create(file *models.TaskFile) error {
	return errors.WithStack(r.db.Create(file).Error)
}

// FindByID finds an attachment by ID
func (r *GormTaskFileRepository) FindByID(id string) (*models.TaskFile, error) {
	var file models.TaskFile
	if err := r.db.Where("id = ?", id).First(&file).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &file, nil
}

// ListByTask lists a task's attachments
func (r *GormTaskFileRepository) ListByTask(taskID string) ([]models.TaskFile, error) {
	var files []models.TaskFile
	if err := r.db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&files).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return files, nil
}

// Delete soft deletes an attachment by ID
func (r *GormTaskFileRepository) Delete(id string) error {
	return errors.WithStack(r.db.Where("id = ?", id).Delete(&models.TaskFile{}).Error)
}
