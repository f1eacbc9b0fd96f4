package models

type AssistantKind string

const (
	AssistantKindOwner     AssistantKind = "owner"
	AssistantKindAssistant AssistantKind = "assistant"
)

type TaskAssistant struct {
	Base
	TaskID string        `gorm:"type:varchar(36);not null;index" json:"task_id"`
	UserID string        `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Kind   AssistantKind `gorm:"type:varchar(20);not null" json:"kind"`
	Status MemberStatus  `gorm:"not null;default:1" json:"status"`
}

func (a *TaskAssistant) IsOwner() bool {
	return a.Kind == AssistantKindOwner
}

func (a *TaskAssistant) AuditTaskID() string {
	if a == nil {
		return ""
	}
	return a.TaskID
}
