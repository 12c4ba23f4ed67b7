package entity

import (
	"errors"
	"strings"
)

// Role is the closed set of profile roles. It is decided once at sign-up and
// never reassigned.
type Role string

const (
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

var ErrInvalidRole = errors.New("role must be doctor or admin")

// ParseRole accepts only the two known roles.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleDoctor:
		return RoleDoctor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrInvalidRole
}

func (r Role) IsValid() bool {
	return r == RoleDoctor || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
