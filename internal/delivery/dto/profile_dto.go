package dto

import (
	"time"

	"github.com/google/uuid"
)

// UpdateProfileRequest is a partial update: nil fields are left untouched,
// empty strings clear the column.
type UpdateProfileRequest struct {
	FullName          *string `json:"full_name" validate:"omitempty,max=255"`
	PhoneNumber       *string `json:"phone_number" validate:"omitempty,max=50"`
	City              *string `json:"city" validate:"omitempty,max=100"`
	Hospital          *string `json:"hospital" validate:"omitempty,max=255"`
	Speciality        *string `json:"speciality" validate:"omitempty,max=100"`
	YearsOfExperience *string `json:"years_of_experience"` // free text from the form, parsed leniently
	Availability      *string `json:"availability"`
	OPD               *string `json:"opd"`
	Notes             *string `json:"notes"`
}

type ProfileResponse struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	FullName          *string   `json:"full_name"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	PhoneNumber       *string   `json:"phone_number"`
	City              *string   `json:"city"`
	Hospital          *string   `json:"hospital"`
	Speciality        *string   `json:"speciality"`
	YearsOfExperience *int      `json:"years_of_experience"`
	Availability      *string   `json:"availability"`
	OPD               *string   `json:"opd"`
	Notes             *string   `json:"notes"`
	ProfilePhotoURL   *string   `json:"profile_photo_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
