package models

type GroupStatus int

const (
	GroupStatusDisabled GroupStatus = 0
	GroupStatusNormal   GroupStatus = 1
)

type TaskGroup struct {
	Base
	// TeamID is empty for private groups.
	TeamID      string      `gorm:"type:varchar(36);index" json:"team_id"`
	Name        string      `gorm:"type:varchar(100);not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Status      GroupStatus `gorm:"not null;default:1" json:"status"`
}

func (g *TaskGroup) IsPrivate() bool {
	return g.TeamID == ""
}
