package models

import "gorm.io/datatypes"

type TaskStatus int

const (
	TaskStatusDisabled   TaskStatus = 0
	TaskStatusNotStarted TaskStatus = 1
	TaskStatusInProgress TaskStatus = 2
	TaskStatusCompleted  TaskStatus = 3
	TaskStatusCanceled   TaskStatus = 4
)

func (s TaskStatus) Valid() bool {
	return s >= TaskStatusDisabled && s <= TaskStatusCanceled
}

type Priority int

const (
	PriorityP0      Priority = 0
	PriorityP4      Priority = 4
	DefaultPriority Priority = 3
)

func (p Priority) Valid() bool {
	return p >= PriorityP0 && p <= PriorityP4
}

type Task struct {
	Base
	TaskGroupID string `gorm:"type:varchar(36);not null;index" json:"task_group_id"`
	// TeamID mirrors the group's team and is empty for private groups.
	TeamID      string          `gorm:"type:varchar(36);index" json:"team_id"`
	OwnerID     string          `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Status      TaskStatus      `gorm:"not null;default:1" json:"status"`
	Priority    Priority        `gorm:"not null;default:3" json:"priority"`
	StartDate   datatypes.Date  `json:"start_date"`
	DueDate     datatypes.Date  `json:"due_date"`
	FinishDate  *datatypes.Date `json:"finish_date"`
}

func (t *Task) AuditTaskID() string {
	if t == nil {
		return ""
	}
	return t.ID
}

type ChildTask struct {
	Base
	TaskID     string          `gorm:"type:varchar(36);not null;index" json:"task_id"`
	AssigneeID string          `gorm:"type:varchar(36);index" json:"assignee_id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Status     TaskStatus      `gorm:"not null;default:1" json:"status"`
	SortIndex  int             `gorm:"not null" json:"index"`
	DueDate    datatypes.Date  `json:"due_date"`
	FinishDate *datatypes.Date `json:"finish_date"`
}

func (c *ChildTask) AuditTaskID() string {
	if c == nil {
		return ""
	}
	return c.TaskID
}

// FinishDateFor applies the completion rule shared by tasks and child tasks:
// a finish date exists only while the status is Completed, defaulting to today.
func FinishDateFor(status TaskStatus, current, explicit *datatypes.Date) *datatypes.Date {
	if status != TaskStatusCompleted {
		return nil
	}
	if explicit != nil {
		return explicit
	}
	if current != nil {
		return current
	}
	today := Today()
	return &today
}
