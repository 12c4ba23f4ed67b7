package converter

import (
	"careguide/internal/delivery/dto"
	"careguide/internal/domain/entity"
)

// ProfileToResponse converts a Profile entity to ProfileResponse DTO
func ProfileToResponse(profile *entity.Profile) *dto.ProfileResponse {
	if profile == nil {
		return nil
	}

	response := &dto.ProfileResponse{
		ID:                profile.ID,
		UserID:            profile.UserID,
		FullName:          profile.FullName,
		Email:             profile.Email,
		Role:              profile.Role.String(),
		PhoneNumber:       profile.PhoneNumber,
		City:              profile.City,
		Hospital:          profile.Hospital,
		Speciality:        profile.Speciality,
		YearsOfExperience: profile.YearsOfExperience,
		OPD:               profile.OPD,
		Notes:             profile.Notes,
		ProfilePhotoURL:   profile.ProfilePhotoURL,
		CreatedAt:         profile.CreatedAt,
		UpdatedAt:         profile.UpdatedAt,
	}

	if profile.Availability != nil {
		availability := string(*profile.Availability)
		response.Availability = &availability
	}

	return response
}

// ProfilesToResponse keeps the input order.
func ProfilesToResponse(profiles []entity.Profile) []dto.ProfileResponse {
	responses := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, *ProfileToResponse(&profiles[i]))
	}
	return responses
}
