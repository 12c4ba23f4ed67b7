package converter

import (
	"careguide/internal/delivery/dto"
	"careguide/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	return &dto.UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		EmailConfirmedAt: user.EmailConfirmedAt,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}
