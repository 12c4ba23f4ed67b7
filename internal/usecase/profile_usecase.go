package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"careguide/internal/delivery/dto"
	"careguide/internal/domain/entity"
	"careguide/internal/domain/repository"
	"careguide/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProfileUsecase is the ordinary access path to profiles. It applies the
// row policy of the profiles table: anyone may read, owners and admins may
// update, only admins may delete.
type ProfileUsecase interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	RoleOf(ctx context.Context, userID uuid.UUID) (entity.Role, error)
	ListByRole(ctx context.Context, role entity.Role, city, speciality string) ([]entity.Profile, error)
	ListDirectory(ctx context.Context) ([]entity.Profile, error)
	Update(ctx context.Context, caller *entity.Principal, profileID uuid.UUID, req *dto.UpdateProfileRequest) (*entity.Profile, error)
	UpdateOwn(ctx context.Context, caller *entity.Principal, req *dto.UpdateProfileRequest) (*entity.Profile, error)
	Delete(ctx context.Context, caller *entity.Principal, profileID uuid.UUID) error
	UploadPhoto(ctx context.Context, caller *entity.Principal, file io.Reader) (*entity.Profile, error)
}

type profileUsecase struct {
	log           *logrus.Logger
	profileRepo   repository.ProfileRepository
	storage       repository.ObjectStorage
	avatarService service.AvatarService
}

func NewProfileUsecase(
	log *logrus.Logger,
	profileRepo repository.ProfileRepository,
	storage repository.ObjectStorage,
	avatarService service.AvatarService,
) ProfileUsecase {
	return &profileUsecase{
		log:           log,
		profileRepo:   profileRepo,
		storage:       storage,
		avatarService: avatarService,
	}
}

func (u *profileUsecase) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	profile, err := u.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find profile by user ID: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (u *profileUsecase) GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	profile, err := u.profileRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find profile by ID: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (u *profileUsecase) RoleOf(ctx context.Context, userID uuid.UUID) (entity.Role, error) {
	profile, err := u.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

func (u *profileUsecase) ListByRole(ctx context.Context, role entity.Role, city, speciality string) ([]entity.Profile, error) {
	profiles, err := u.profileRepo.FindAll(ctx, entity.ProfileFilter{
		Role:       role,
		City:       activeFilter(city),
		Speciality: activeFilter(speciality),
	})
	if err != nil {
		u.log.Warnf("Failed to list profiles: %+v", err)
		return nil, err
	}
	return profiles, nil
}

func (u *profileUsecase) ListDirectory(ctx context.Context) ([]entity.Profile, error) {
	profiles, err := u.profileRepo.FindAll(ctx, entity.ProfileFilter{
		Role:        entity.RoleDoctor,
		PublicOnly:  true,
		OrderByName: true,
	})
	if err != nil {
		u.log.Warnf("Failed to list directory: %+v", err)
		return nil, err
	}
	return profiles, nil
}

func (u *profileUsecase) Update(ctx context.Context, caller *entity.Principal, profileID uuid.UUID, req *dto.UpdateProfileRequest) (*entity.Profile, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}

	profile, err := u.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := u.authorizeUpdate(ctx, caller, profile); err != nil {
		return nil, err
	}

	fields, err := updateFields(req)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return profile, nil
	}

	if _, err := u.profileRepo.Update(ctx, profile.ID, fields); err != nil {
		u.log.Warnf("Failed to update profile: %+v", err)
		return nil, err
	}

	return u.GetByID(ctx, profile.ID)
}

func (u *profileUsecase) UpdateOwn(ctx context.Context, caller *entity.Principal, req *dto.UpdateProfileRequest) (*entity.Profile, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	profile, err := u.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return u.Update(ctx, caller, profile.ID, req)
}

func (u *profileUsecase) authorizeUpdate(ctx context.Context, caller *entity.Principal, profile *entity.Profile) error {
	if profile.UserID == caller.UserID {
		return nil
	}
	if u.isAdmin(ctx, caller) {
		return nil
	}
	return ErrNotAuthorized
}

func (u *profileUsecase) isAdmin(ctx context.Context, caller *entity.Principal) bool {
	role, err := u.RoleOf(ctx, caller.UserID)
	return err == nil && role == entity.RoleAdmin
}

// Delete removes the profile row only. The linked account is untouched;
// removing it needs the privileged deletion routine.
func (u *profileUsecase) Delete(ctx context.Context, caller *entity.Principal, profileID uuid.UUID) error {
	if caller == nil {
		return ErrNotAuthenticated
	}
	if !u.isAdmin(ctx, caller) {
		return ErrNotAuthorized
	}

	affected, err := u.profileRepo.Delete(ctx, profileID)
	if err != nil {
		u.log.Warnf("Failed to delete profile: %+v", err)
		return err
	}
	if affected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// UploadPhoto stores a new avatar and points the caller's profile at it.
// The two steps are not atomic: when the profile update fails the uploaded
// object stays in the bucket.
func (u *profileUsecase) UploadPhoto(ctx context.Context, caller *entity.Principal, file io.Reader) (*entity.Profile, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}

	profile, err := u.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	data, err := u.avatarService.Normalize(file)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s-%s.jpg", caller.UserID, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	if err := u.storage.Upload(ctx, key, service.AvatarContentType, bytes.NewReader(data), int64(len(data))); err != nil {
		u.log.Warnf("Failed to upload profile photo: %+v", err)
		return nil, err
	}

	publicURL := u.storage.PublicURL(key)
	if _, err := u.profileRepo.Update(ctx, profile.ID, map[string]interface{}{"profile_photo_url": publicURL}); err != nil {
		u.log.WithFields(logrus.Fields{
			"user_id": caller.UserID,
			"object":  key,
		}).Warnf("Failed to save profile photo URL, uploaded object is orphaned: %+v", err)
		return nil, err
	}

	return u.GetByID(ctx, profile.ID)
}

// ParseYearsOfExperience turns the free-text form value into a column
// value: empty, unparseable and negative input all mean "not given".
func ParseYearsOfExperience(text string) *int {
	years, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || years < 0 {
		return nil
	}
	return &years
}

// updateFields builds the column map of a partial update. role and user_id
// are never part of it.
func updateFields(req *dto.UpdateProfileRequest) (map[string]interface{}, error) {
	fields := make(map[string]interface{})

	text := map[string]*string{
		"full_name":    req.FullName,
		"phone_number": req.PhoneNumber,
		"city":         req.City,
		"hospital":     req.Hospital,
		"speciality":   req.Speciality,
		"opd":          req.OPD,
		"notes":        req.Notes,
	}
	for column, value := range text {
		if value != nil {
			fields[column] = nullableText(*value)
		}
	}

	if req.YearsOfExperience != nil {
		fields["years_of_experience"] = ParseYearsOfExperience(*req.YearsOfExperience)
	}

	if req.Availability != nil {
		value := strings.TrimSpace(*req.Availability)
		if value == "" {
			fields["availability"] = nil
		} else {
			availability, err := entity.ParseAvailability(value)
			if err != nil {
				return nil, err
			}
			fields["availability"] = availability
		}
	}

	return fields, nil
}

func nullableText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func activeFilter(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "all") {
		return ""
	}
	return value
}
