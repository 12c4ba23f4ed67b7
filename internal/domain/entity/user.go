package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authentication identity
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email            string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"column:password_hash;type:text;not null" json:"-"`
	EmailConfirmedAt *time.Time `gorm:"type:timestamptz" json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsConfirmed() bool {
	return u.EmailConfirmedAt != nil
}
