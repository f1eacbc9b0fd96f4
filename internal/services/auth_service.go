package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartduck/ducktodo/internal/constants"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	store    *repository.Store
	validate *validator.Validate
}

// NewAuthService creates a new AuthService.
func NewAuthService(store *repository.Store) *AuthService {
	return &AuthService{
		store:    store,
		validate: validator.New(),
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Password string
}

// Signup creates a new user along with the private default task group.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.FindByUsername(username); err == nil {
			return ErrUsernameTaken
		} else if !isNotFound(err) {
			return fmt.Errorf("failed to check username: %w", err)
		}

		if err := tx.Users.Create(user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		group := &models.TaskGroup{
			Name:   constants.DefaultGroupName,
			Status: models.GroupStatusNormal,
		}
		return createPrivateGroup(tx, group, user.ID)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.store.WithContext(ctx).Users.FindByUsername(input.Username)
	if err != nil {
		return nil, notFoundOr(err, ErrInvalidCredentials, "find user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.WithContext(ctx).Users.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}

	return user, nil
}

// UpdateProfileInput carries the profile fields to change. Nil fields are
// left alone; an empty email or phone clears it.
type UpdateProfileInput struct {
	UserID string
	Email  *string
	Phone  *string
	Remark *string
}

// UpdateProfile changes the caller's contact details and remark. Email and
// phone must be well formed and not used by another user.
func (s *AuthService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*models.User, error) {
	fields := map[string]any{}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != "" && s.validate.Var(email, "email") != nil {
			return nil, ErrInvalidEmail
		}
		fields["email"] = nullable(email)
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone != "" && s.validate.Var(phone, "numeric,len=11") != nil {
			return nil, ErrInvalidPhone
		}
		fields["phone"] = nullable(phone)
	}
	if input.Remark != nil {
		fields["remark"] = *input.Remark
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if email, ok := fields["email"].(*string); ok && email != nil {
			taken, err := tx.Users.EmailInUse(*email, input.UserID)
			if err != nil {
				return fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return ErrEmailTaken
			}
		}
		if phone, ok := fields["phone"].(*string); ok && phone != nil {
			taken, err := tx.Users.PhoneInUse(*phone, input.UserID)
			if err != nil {
				return fmt.Errorf("failed to check phone: %w", err)
			}
			if taken {
				return ErrPhoneTaken
			}
		}

		if len(fields) > 0 {
			if err := tx.Users.Update(input.UserID, fields); err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}
		}

		var err error
		user, err = tx.Users.FindByID(input.UserID)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound, "find user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// ChangePasswordInput holds the current and the new password.
type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if len(input.NewPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	store := s.store.WithContext(ctx)
	user, err := store.Users.FindByID(input.UserID)
	if err != nil {
		return notFoundOr(err, ErrUserNotFound, "find user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := store.Users.Update(user.ID, map[string]any{"password_hash": string(hashedPassword)}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
