package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type TokenKind string

const (
	AccessTokenKind  TokenKind = "access_token"
	RefreshTokenKind TokenKind = "refresh_token"
)

var ErrVerificationNotFound = errors.New("verification token not found")

// TokenRepository tracks issued tokens so they can be revoked before expiry.
type TokenRepository interface {
	Save(ctx context.Context, kind TokenKind, userID uuid.UUID, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, kind TokenKind, userID uuid.UUID, tokenID string) (bool, error)
	Revoke(ctx context.Context, kind TokenKind, tokenID string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error

	SaveVerification(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	// ConsumeVerification returns the user of a verification token and
	// deletes it, so every token works once.
	ConsumeVerification(ctx context.Context, token string) (uuid.UUID, error)
}
