package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"careguide/internal/domain/entity"
	"careguide/internal/usecase"
	"careguide/pkg/response"

	"github.com/google/uuid"
)

type contextKey string

const (
	PrincipalKey   contextKey = "principal"
	AccessTokenKey contextKey = "access_token"
)

// TokenVerifier resolves an access token to its caller.
type TokenVerifier interface {
	GetUser(ctx context.Context, accessToken string) (*entity.Principal, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		tokenString, ok := BearerToken(r)
		if !ok {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		principal, err := m.verifier.GetUser(r.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrTokenRevoked):
				response.Unauthorized(w, "Token has been revoked")
			case errors.Is(err, usecase.ErrInvalidToken), errors.Is(err, usecase.ErrTokenExpired):
				response.Unauthorized(w, "Invalid or expired token")
			default:
				response.InternalServerError(w, "Failed to validate token")
			}
			return
		}

		ctx := WithPrincipal(r.Context(), principal)
		ctx = context.WithValue(ctx, AccessTokenKey, tokenString)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func WithPrincipal(ctx context.Context, principal *entity.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetPrincipalFromContext returns the authenticated caller, nil for
// anonymous requests.
func GetPrincipalFromContext(ctx context.Context) *entity.Principal {
	principal, _ := ctx.Value(PrincipalKey).(*entity.Principal)
	return principal
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	principal := GetPrincipalFromContext(ctx)
	if principal == nil {
		return uuid.Nil, false
	}
	return principal.UserID, true
}

// GetAccessTokenFromContext extracts the raw access token from context
func GetAccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(AccessTokenKey).(string)
	return token, ok
}
