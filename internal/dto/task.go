package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/services"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string            `json:"id"`
	TaskGroupID string            `json:"task_group_id"`
	TeamID      string            `json:"team_id,omitempty"`
	OwnerID     string            `json:"owner_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	Priority    models.Priority   `json:"priority"`
	StartDate   string            `json:"start_date"`
	DueDate     string            `json:"due_date"`
	FinishDate  *string           `json:"finish_date"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ChildTaskDTO represents a child task in API responses
type ChildTaskDTO struct {
	ID         string            `json:"id"`
	TaskID     string            `json:"task_id"`
	AssigneeID string            `json:"assignee_id"`
	Name       string            `json:"name"`
	Status     models.TaskStatus `json:"status"`
	Index      int               `json:"index"`
	DueDate    string            `json:"due_date"`
	FinishDate *string           `json:"finish_date"`
}

// AssistantDTO represents a task assistantship in API responses
type AssistantDTO struct {
	ID     string               `json:"id"`
	UserID string               `json:"user_id"`
	Kind   models.AssistantKind `json:"kind"`
	Status models.MemberStatus  `json:"status"`
}

// FileDTO represents a task attachment in API responses
type FileDTO struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	UploaderID string    `json:"uploader_id"`
	FileName   string    `json:"file_name"`
	ObjectRef  string    `json:"object_ref"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	Remark     string    `json:"remark,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NodeDTO represents a task graph node in API responses
type NodeDTO struct {
	ID          string         `json:"id"`
	TeamID      string         `json:"team_id,omitempty"`
	TaskGroupID string         `json:"task_group_id,omitempty"`
	TaskID      string         `json:"task_id,omitempty"`
	ChildTaskID string         `json:"child_task_id,omitempty"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	ExtraData   datatypes.JSON `json:"extra_data,omitempty"`
}

// EdgeDTO represents a task graph edge in API responses
type EdgeDTO struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// AuditDTO represents a task audit record in API responses
type AuditDTO struct {
	ID          string             `json:"id"`
	OperatorID  string             `json:"operator_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TaskDetailDTO represents a task with everything hanging off it
type TaskDetailDTO struct {
	TaskDTO
	Children   []ChildTaskDTO `json:"children"`
	Assistants []AssistantDTO `json:"assistants"`
	Files      []FileDTO      `json:"files"`
	Nodes      []NodeDTO      `json:"nodes"`
}

// Conversion functions

func formatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

func formatOptionalDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := formatDate(*d)
	return &s
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		TaskGroupID: task.TaskGroupID,
		TeamID:      task.TeamID,
		OwnerID:     task.OwnerID,
		Name:        task.Name,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		StartDate:   formatDate(task.StartDate),
		DueDate:     formatDate(task.DueDate),
		FinishDate:  formatOptionalDate(task.FinishDate),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}

// ToChildTaskDTO converts a ChildTask model to ChildTaskDTO
func ToChildTaskDTO(child models.ChildTask) ChildTaskDTO {
	return ChildTaskDTO{
		ID:         child.ID,
		TaskID:     child.TaskID,
		AssigneeID: child.AssigneeID,
		Name:       child.Name,
		Status:     child.Status,
		Index:      child.SortIndex,
		DueDate:    formatDate(child.DueDate),
		FinishDate: formatOptionalDate(child.FinishDate),
	}
}

// ToChildTaskDTOs converts a slice of child tasks
func ToChildTaskDTOs(children []models.ChildTask) []ChildTaskDTO {
	dtos := make([]ChildTaskDTO, len(children))
	for i, child := range children {
		dtos[i] = ToChildTaskDTO(child)
	}
	return dtos
}

// ToAssistantDTO converts a TaskAssistant model to AssistantDTO
func ToAssistantDTO(a models.TaskAssistant) AssistantDTO {
	return AssistantDTO{
		ID:     a.ID,
		UserID: a.UserID,
		Kind:   a.Kind,
		Status: a.Status,
	}
}

// ToFileDTO converts a TaskFile model to FileDTO
func ToFileDTO(f models.TaskFile) FileDTO {
	return FileDTO{
		ID:         f.ID,
		TaskID:     f.TaskID,
		UploaderID: f.UploaderID,
		FileName:   f.FileName,
		ObjectRef:  f.ObjectRef,
		FileType:   f.FileType,
		FileSize:   f.FileSize,
		Remark:     f.Remark,
		CreatedAt:  f.CreatedAt,
	}
}

// ToNodeDTO converts a TaskNode model to NodeDTO
func ToNodeDTO(n models.TaskNode) NodeDTO {
	return NodeDTO{
		ID:          n.ID,
		TeamID:      n.TeamID,
		TaskGroupID: n.TaskGroupID,
		TaskID:      n.TaskID,
		ChildTaskID: n.ChildTaskID,
		Name:        n.Name,
		Type:        n.Type,
		Description: n.Description,
		ExtraData:   n.ExtraData,
	}
}

// ToEdgeDTO converts a TaskEdge model to EdgeDTO
func ToEdgeDTO(e models.TaskEdge) EdgeDTO {
	return EdgeDTO{
		ID:          e.ID,
		SourceID:    e.SourceID,
		TargetID:    e.TargetID,
		Type:        e.Type,
		Description: e.Description,
	}
}

// ToAuditDTOs converts a task's audit records
func ToAuditDTOs(records []models.TaskAudit) []AuditDTO {
	dtos := make([]AuditDTO, len(records))
	for i, r := range records {
		dtos[i] = AuditDTO{
			ID:          r.ID,
			OperatorID:  r.OperatorID,
			Action:      r.Action,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		}
	}
	return dtos
}

// ToTaskDetailDTO converts a task detail
func ToTaskDetailDTO(detail services.TaskDetail) TaskDetailDTO {
	dto := TaskDetailDTO{
		TaskDTO:    ToTaskDTO(*detail.Task),
		Children:   ToChildTaskDTOs(detail.Children),
		Assistants: make([]AssistantDTO, len(detail.Assistants)),
		Files:      make([]FileDTO, len(detail.Files)),
		Nodes:      make([]NodeDTO, len(detail.Nodes)),
	}
	for i, a := range detail.Assistants {
		dto.Assistants[i] = ToAssistantDTO(a)
	}
	for i, f := range detail.Files {
		dto.Files[i] = ToFileDTO(f)
	}
	for i, n := range detail.Nodes {
		dto.Nodes[i] = ToNodeDTO(n)
	}
	return dto
}
