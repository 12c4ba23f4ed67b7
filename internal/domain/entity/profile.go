package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Profile is the directory record of a registered user. Doctor-specific
// fields are optional and stay null until the doctor fills them in.
type Profile struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID            uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FullName          *string       `gorm:"type:varchar(255)" json:"full_name"`
	Email             string        `gorm:"type:varchar(255);not null" json:"email"`
	Role              Role          `gorm:"type:varchar(20);not null;index" json:"role"`
	PhoneNumber       *string       `gorm:"type:varchar(50)" json:"phone_number"`
	City              *string       `gorm:"type:varchar(100);index" json:"city"`
	Hospital          *string       `gorm:"type:varchar(255)" json:"hospital"`
	Speciality        *string       `gorm:"type:varchar(100);index" json:"speciality"`
	YearsOfExperience *int          `json:"years_of_experience"`
	Availability      *Availability `gorm:"type:varchar(20)" json:"availability"`
	OPD               *string       `gorm:"column:opd;type:text" json:"opd"`
	Notes             *string       `gorm:"type:text" json:"notes"`
	ProfilePhotoURL   *string       `gorm:"type:text" json:"profile_photo_url"`
	CreatedAt         time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// IsListed reports whether the profile may appear in the public directory.
func (p *Profile) IsListed() bool {
	return p.Role == RoleDoctor && p.FullName != nil
}

// DisplayName falls back to the e-mail address for profiles without a name.
func (p *Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}

// Availability of a doctor for appointments
type Availability string

const (
	AvailabilityFullTime    Availability = "full-time"
	AvailabilityPartTime    Availability = "part-time"
	AvailabilityWeekendOnly Availability = "weekend-only"
	AvailabilityOnCall      Availability = "on-call"
)

var ErrInvalidAvailability = errors.New("availability must be full-time, part-time, weekend-only or on-call")

var Availabilities = []Availability{
	AvailabilityFullTime,
	AvailabilityPartTime,
	AvailabilityWeekendOnly,
	AvailabilityOnCall,
}

func ParseAvailability(s string) (Availability, error) {
	for _, a := range Availabilities {
		if string(a) == s {
			return a, nil
		}
	}
	return "", ErrInvalidAvailability
}

// Label is the human readable form shown in listings ("weekend only").
func (a Availability) Label() string {
	b := []byte(a)
	for i, c := range b {
		if c == '-' {
			b[i] = ' '
			break
		}
	}
	return string(b)
}

// Specialities offered by the self-service form.
var Specialities = []string{
	"cardiology",
	"dermatology",
	"endocrinology",
	"gastroenterology",
	"general-medicine",
	"neurology",
	"oncology",
	"orthopedics",
	"pediatrics",
	"psychiatry",
	"surgery",
	"urology",
}
