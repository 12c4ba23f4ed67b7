package repository

import (
	"context"
	"errors"
	"time"

	"careguide/internal/domain/entity"
	domainRepo "careguide/internal/domain/repository"
	"careguide/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) domainRepo.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	return database.Conn(ctx, r.db).Create(profile).Error
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *profileRepository) findOne(ctx context.Context, query string, arg interface{}) (*entity.Profile, error) {
	var profile entity.Profile
	err := database.Conn(ctx, r.db).Where(query, arg).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindAll(ctx context.Context, filter entity.ProfileFilter) ([]entity.Profile, error) {
	query := database.Conn(ctx, r.db).Model(&entity.Profile{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.City != "" {
		query = query.Where("lower(city) = lower(?)", filter.City)
	}
	if filter.Speciality != "" {
		query = query.Where("lower(speciality) = lower(?)", filter.Speciality)
	}
	if filter.PublicOnly {
		query = query.Where("full_name IS NOT NULL")
	}
	if filter.OrderByName {
		query = query.Order("full_name ASC")
	}

	var profiles []entity.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now().UTC()
	}
	result := database.Conn(ctx, r.db).Model(&entity.Profile{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *profileRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&entity.Profile{})
	return result.RowsAffected, result.Error
}
