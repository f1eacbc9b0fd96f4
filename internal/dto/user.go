package dto

import "github.com/smartduck/ducktodo/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Remark   string  `json:"remark"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Phone:    user.Phone,
		Remark:   user.Remark,
	}
}
