package usecase

import (
	"context"
	"errors"
	"fmt"

	"careguide/internal/delivery/dto"
	"careguide/internal/domain/entity"
	"careguide/internal/privileged"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrMissingDoctorID = errors.New("doctorId is required")
)

// PrivilegedClient is the part of privileged.Client the deletion routine
// needs.
type PrivilegedClient interface {
	GetProfileByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// DeleteDoctorUsecase removes a doctor completely: the profile row and the
// auth account behind it. The caller is verified with the ordinary auth and
// profile paths before the privileged client is touched.
type DeleteDoctorUsecase interface {
	AuthorizeAdmin(ctx context.Context, accessToken string) (*entity.Principal, error)
	DeleteDoctor(ctx context.Context, caller *entity.Principal, doctorID string) (*dto.DeleteDoctorResponse, error)
}

type deleteDoctorUsecase struct {
	log            *logrus.Logger
	authUsecase    AuthUsecase
	profileUsecase ProfileUsecase
	privileged     PrivilegedClient
}

func NewDeleteDoctorUsecase(
	log *logrus.Logger,
	authUsecase AuthUsecase,
	profileUsecase ProfileUsecase,
	privileged PrivilegedClient,
) DeleteDoctorUsecase {
	return &deleteDoctorUsecase{
		log:            log,
		authUsecase:    authUsecase,
		profileUsecase: profileUsecase,
		privileged:     privileged,
	}
}

func (u *deleteDoctorUsecase) AuthorizeAdmin(ctx context.Context, accessToken string) (*entity.Principal, error) {
	caller, err := u.authUsecase.GetUser(ctx, accessToken)
	if err != nil || caller == nil {
		return nil, ErrNotAuthenticated
	}

	role, err := u.profileUsecase.RoleOf(ctx, caller.UserID)
	if err != nil || role != entity.RoleAdmin {
		return nil, ErrNotAuthorized
	}
	return caller, nil
}

func (u *deleteDoctorUsecase) DeleteDoctor(ctx context.Context, caller *entity.Principal, doctorID string) (*dto.DeleteDoctorResponse, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	if doctorID == "" {
		return nil, ErrMissingDoctorID
	}

	log := u.log.WithFields(logrus.Fields{
		"doctor_id": doctorID,
		"admin_id":  caller.UserID,
	})
	log.Info("Deleting doctor")

	id, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, ErrDoctorNotFound
	}

	doctor, err := u.privileged.GetProfileByID(ctx, id)
	if err != nil {
		log.Warnf("Failed to fetch doctor: %+v", err)
		return nil, ErrDoctorNotFound
	}

	// Without the row the account is left alone.
	if err := u.privileged.DeleteProfile(ctx, doctor.ID); err != nil {
		log.Warnf("Failed to delete profile: %+v", err)
		return nil, fmt.Errorf("failed to delete doctor profile: %w", err)
	}

	if err := u.privileged.DeleteUser(ctx, doctor.UserID); err != nil && !errors.Is(err, privileged.ErrNotFound) {
		log.WithField("user_id", doctor.UserID).
			Warnf("Profile deleted but auth user deletion failed: %+v", err)
	}

	name := doctor.DisplayName()
	log.WithField("name", name).Info("Doctor successfully deleted")

	return &dto.DeleteDoctorResponse{
		Success: true,
		Message: fmt.Sprintf("%s has been completely removed from the system", name),
	}, nil
}
