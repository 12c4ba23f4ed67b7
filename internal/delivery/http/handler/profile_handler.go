package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"careguide/internal/converter"
	"careguide/internal/delivery/dto"
	"careguide/internal/delivery/http/middleware"
	"careguide/internal/domain/entity"
	"careguide/internal/service"
	"careguide/internal/usecase"
	"careguide/pkg/response"
	"careguide/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// MaxPhotoSize is the largest accepted profile photo upload.
const MaxPhotoSize = 5 << 20

type ProfileHandler struct {
	profileUsecase usecase.ProfileUsecase
	validator      *validator.CustomValidator
}

func NewProfileHandler(profileUsecase usecase.ProfileUsecase, validator *validator.CustomValidator) *ProfileHandler {
	return &ProfileHandler{
		profileUsecase: profileUsecase,
		validator:      validator,
	}
}

func (h *ProfileHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	profile, err := h.profileUsecase.GetByUserID(r.Context(), userID)
	if err != nil {
		writeProfileError(w, err, "Failed to get profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile retrieved successfully", converter.ProfileToResponse(profile))
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid profile ID")
		return
	}

	profile, err := h.profileUsecase.GetByID(r.Context(), id)
	if err != nil {
		writeProfileError(w, err, "Failed to get profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile retrieved successfully", converter.ProfileToResponse(profile))
}

func (h *ProfileHandler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	caller := middleware.GetPrincipalFromContext(r.Context())
	profile, err := h.profileUsecase.UpdateOwn(r.Context(), caller, &req)
	if err != nil {
		writeProfileError(w, err, "Failed to update profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", converter.ProfileToResponse(profile))
}

// UploadPhoto expects a multipart form with the image in field "file".
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(MaxPhotoSize); err != nil {
		response.BadRequest(w, "Photo must be a multipart upload of at most 5 MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	if header.Size > MaxPhotoSize {
		response.BadRequest(w, "Photo must be at most 5 MB")
		return
	}

	caller := middleware.GetPrincipalFromContext(r.Context())
	profile, err := h.profileUsecase.UploadPhoto(r.Context(), caller, file)
	if err != nil {
		writeProfileError(w, err, "Failed to upload photo")
		return
	}

	response.Success(w, http.StatusOK, "Profile photo updated", converter.ProfileToResponse(profile))
}

// writeProfileError maps profile usecase errors to responses.
func writeProfileError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrNotAuthenticated):
		response.Unauthorized(w, "")
	case errors.Is(err, usecase.ErrNotAuthorized):
		response.Forbidden(w, "")
	case errors.Is(err, usecase.ErrProfileNotFound):
		response.NotFound(w, "Profile not found")
	case errors.Is(err, entity.ErrInvalidAvailability), errors.Is(err, service.ErrUnsupportedImage):
		response.BadRequest(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
