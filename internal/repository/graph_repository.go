package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/models"
)

// GormGraphRepository is a GORM implementation of GraphRepository
type GormGraphRepository struct {
	db *gorm.DB
}

// NewGraphRepository creates a new GraphRepository
func NewGraphRepository(db *gorm.DB) GraphRepository {
	return &GormGraphRepository{db: db}
}

// CreateNode creates a graph node
func (r *GormGraphRepository) CreateNode(node *models.TaskNode) error {
	return errors.WithStack(r.db.Create(node).Error)
}

// FindNode finds a graph node by ID
func (r *GormGraphRepository) FindNode(id string) (*models.TaskNode, error) {
	var node models.TaskNode
	if err := r.db.Where("id = ?", id).First(&node).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return &node, nil
}

// CreateEdge creates a graph edge
func (r *GormGraphRepository) CreateEdge(edge *models.TaskEdge) error {
	return errors.WithStack(r.db.Create(edge).Error)
}

// ListNodesByTask lists the nodes anchored to a task
func (r *GormGraphRepository) ListNodesByTask(taskID string) ([]models.TaskNode, error) {
	var nodes []models.TaskNode
	if err := r.db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&nodes).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return nodes, nil
}

// GormAuditRepository is a GORM implementation of AuditRepository
type GormAuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &GormAuditRepository{db: db}
}

// Create appends an audit record
func (r *GormAuditRepository) Create(record *models.TaskAudit) error {
	return errors.WithStack(r.db.Create(record).Error)
}

// ListByTask lists a task's audit records, newest first
func (r *GormAuditRepository) ListByTask(taskID string) ([]models.TaskAudit, error) {
	var records []models.TaskAudit
	if err := r.db.Where("task_id = ?", taskID).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return records, nil
}
