package repository

import (
	"context"

	"careguide/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileRepository gives raw access to the profiles table. Row-level policy
// is enforced above it, in the usecase layer.
type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	FindAll(ctx context.Context, filter entity.ProfileFilter) ([]entity.Profile, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
