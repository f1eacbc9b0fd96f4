package models

import "gorm.io/datatypes"

// TaskNode is anchored to exactly one of team, group, task or child task.
type TaskNode struct {
	Base
	TeamID      string         `gorm:"type:varchar(36);index" json:"team_id,omitempty"`
	TaskGroupID string         `gorm:"type:varchar(36);index" json:"task_group_id,omitempty"`
	TaskID      string         `gorm:"type:varchar(36);index" json:"task_id,omitempty"`
	ChildTaskID string         `gorm:"type:varchar(36);index" json:"child_task_id,omitempty"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Type        string         `gorm:"type:varchar(50)" json:"type"`
	Description string         `gorm:"type:text" json:"description"`
	ExtraData   datatypes.JSON `json:"extra_data,omitempty"`
	Status      int            `gorm:"not null;default:1" json:"status"`
}

func (n *TaskNode) AuditTaskID() string {
	if n == nil {
		return ""
	}
	return n.TaskID
}

type TaskEdge struct {
	Base
	SourceID    string `gorm:"type:varchar(36);not null;index" json:"source_id"`
	TargetID    string `gorm:"type:varchar(36);not null;index" json:"target_id"`
	Type        string `gorm:"type:varchar(50)" json:"type"`
	Description string `gorm:"type:text" json:"description"`
}
