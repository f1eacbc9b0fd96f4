package models

type AuditAction string

const (
	AuditActionCreate   AuditAction = "CREATE"
	AuditActionUpdate   AuditAction = "UPDATE"
	AuditActionDelete   AuditAction = "DELETE"
	AuditActionComplete AuditAction = "COMPLETE"
	AuditActionCancel   AuditAction = "CANCEL"
	AuditActionArchive  AuditAction = "ARCHIVE"
	AuditActionRestore  AuditAction = "RESTORE"
)

type TaskAudit struct {
	Base
	TaskID      string      `gorm:"type:varchar(36);not null;index" json:"task_id"`
	OperatorID  string      `gorm:"type:varchar(36);not null" json:"operator_id"`
	Action      AuditAction `gorm:"type:varchar(20);not null" json:"action"`
	Description string      `gorm:"type:text" json:"description"`
}
