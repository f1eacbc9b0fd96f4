package models

type FileStatus int

const (
	FileStatusDisabled FileStatus = 0
	FileStatusNormal   FileStatus = 1
)

type TaskFile struct {
	Base
	TaskID     string     `gorm:"type:varchar(36);not null;index" json:"task_id"`
	UploaderID string     `gorm:"type:varchar(36);not null" json:"uploader_id"`
	FileName   string     `gorm:"type:varchar(255);not null" json:"file_name"`
	ObjectRef  string     `gorm:"type:varchar(512);not null" json:"object_ref"`
	FileType   string     `gorm:"type:varchar(100)" json:"file_type"`
	FileSize   int64      `json:"file_size"`
	Status     FileStatus `gorm:"not null;default:1" json:"status"`
	Remark     string     `gorm:"type:varchar(255)" json:"remark"`
}

func (f *TaskFile) AuditTaskID() string {
	if f == nil {
		return ""
	}
	return f.TaskID
}
