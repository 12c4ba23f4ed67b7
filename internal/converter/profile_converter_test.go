package converter

import (
	"testing"

	"careguide/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProfileToResponse(t *testing.T) {
	name := "Jane Doe"
	availability := entity.AvailabilityOnCall
	profile := &entity.Profile{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		FullName:     &name,
		Email:        "jane@example.com",
		Role:         entity.RoleDoctor,
		Availability: &availability,
	}

	resp := ProfileToResponse(profile)

	assert.Equal(t, profile.ID, resp.ID)
	assert.Equal(t, "doctor", resp.Role)
	assert.Equal(t, &name, resp.FullName)
	if assert.NotNil(t, resp.Availability) {
		assert.Equal(t, "on-call", *resp.Availability)
	}
	assert.Nil(t, resp.City)
}

func TestProfileToResponseNil(t *testing.T) {
	assert.Nil(t, ProfileToResponse(nil))
}

func TestProfilesToResponseKeepsOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	out := ProfilesToResponse([]entity.Profile{{ID: a}, {ID: b}})

	assert.Len(t, out, 2)
	assert.Equal(t, a, out[0].ID)
	assert.Equal(t, b, out[1].ID)
}
