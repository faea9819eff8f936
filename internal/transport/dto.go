// Package transport holds the JSON shapes exchanged over HTTP.
package transport

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/Skotchmaster/authservice/internal/hash"
	"github.com/Skotchmaster/authservice/internal/models"
)

const minPasswordLength = 8

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate leaves the password comparison to the service so a mismatch is
// reported as such even when other fields are also wrong.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, 128), hash.FitsBcrypt),
		validation.Field(&r.ConfirmPassword, validation.Required),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

func (r PasswordResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type PasswordResetConfirm struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r PasswordResetConfirm) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required, validation.Length(minPasswordLength, 128), hash.FitsBcrypt),
		validation.Field(&r.ConfirmPassword, validation.Required),
	)
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (r SetActiveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IsActive, validation.NotNil),
	)
}

// Normalize trims the email so "a@b.c " passes is.Email.
func Normalize(email string) string {
	return strings.TrimSpace(email)
}

type UserResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"is_email_verified"`
	IsActive        bool      `json:"is_active"`
	DateOfBirth     *string   `json:"date_of_birth"`
}

func NewUserResponse(a *models.Account) UserResponse {
	out := UserResponse{
		ID:              a.ID,
		Email:           a.Email,
		IsEmailVerified: a.IsEmailVerified,
		IsActive:        a.IsActive,
	}
	if a.DateOfBirth != nil {
		d := a.DateOfBirth.Format(time.DateOnly)
		out.DateOfBirth = &d
	}
	return out
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}
