package models

type TeamStatus int

const (
	TeamStatusDisabled   TeamStatus = 0
	TeamStatusInProgress TeamStatus = 1
	TeamStatusFinished   TeamStatus = 2
)

func (s TeamStatus) Valid() bool {
	return s >= TeamStatusDisabled && s <= TeamStatusFinished
}

type Team struct {
	Base
	Name        string     `gorm:"type:varchar(100);not null;index" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Avatar      string     `gorm:"type:varchar(255)" json:"avatar"`
	Status      TeamStatus `gorm:"not null;default:1" json:"status"`
}
