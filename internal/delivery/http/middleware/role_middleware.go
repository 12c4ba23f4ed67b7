package middleware

import (
	"context"
	"errors"
	"net/http"

	"careguide/internal/domain/entity"
	"careguide/internal/usecase"
	"careguide/pkg/response"

	"github.com/google/uuid"
)

// RoleResolver looks up the role of a user from its profile.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (entity.Role, error)
}

// RequireRole creates a middleware that checks if the caller's profile has
// any of the allowed roles. It must run after Authenticate.
func RequireRole(resolver RoleResolver, allowed ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "")
				return
			}

			role, err := resolver.RoleOf(r.Context(), userID)
			if err != nil {
				// No profile means no role.
				if errors.Is(err, usecase.ErrProfileNotFound) {
					response.Forbidden(w, "You don't have permission to access this resource")
					return
				}
				response.InternalServerError(w, "Failed to resolve role")
				return
			}

			for _, a := range allowed {
				if role == a {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "You don't have permission to access this resource")
		})
	}
}

// RequireAdmin is a convenience middleware for admin-only endpoints
func RequireAdmin(resolver RoleResolver) func(http.Handler) http.Handler {
	return RequireRole(resolver, entity.RoleAdmin)
}
