package dto

import (
	"time"

	"academic-auth-be/pkg/settings"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Phone          string     `json:"phone"`
	StudentID      string     `json:"student_id"`
	Institution    string     `json:"institution"`
	Program        string     `json:"program"`
	GraduationYear int        `json:"graduation_year"`
	Role           string     `json:"role"`
	InstitutionId  *uuid.UUID `json:"institution_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type UpdateProfileRequest struct {
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"omitempty,max=30"`
	StudentID      string `json:"student_id" validate:"omitempty,max=50"`
	Institution    string `json:"institution" validate:"omitempty,max=255"`
	Program        string `json:"program" validate:"omitempty,max=255"`
	GraduationYear int    `json:"graduation_year" validate:"omitempty,min=1900,max=2100"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type SettingsResponse struct {
	Settings  settings.Settings `json:"settings"`
	Languages []string          `json:"languages"`
	Saved     bool              `json:"saved"`
}

// UpdateSettingsRequest replaces the sections that are present.
type UpdateSettingsRequest struct {
	Language      *string                 `json:"language"`
	Notifications *settings.Notifications `json:"notifications"`
	Privacy       *settings.Privacy       `json:"privacy"`
}
