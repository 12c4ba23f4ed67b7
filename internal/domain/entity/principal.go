package entity

import "github.com/google/uuid"

// Principal is the authenticated caller of an ordinary (non-privileged)
// operation. A nil *Principal means an anonymous visitor.
type Principal struct {
	UserID uuid.UUID
	Email  string
}
