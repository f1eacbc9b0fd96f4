package models

type User struct {
	Base
	Username     string  `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string  `gorm:"type:varchar(255);not null" json:"-"`
	Email        *string `gorm:"type:varchar(100);uniqueIndex" json:"email"`
	Phone        *string `gorm:"type:varchar(20);uniqueIndex" json:"phone"`
	Remark       string  `gorm:"type:text" json:"remark"`
}
