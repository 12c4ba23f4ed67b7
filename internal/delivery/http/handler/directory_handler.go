package handler

import (
	"net/http"

	"careguide/internal/converter"
	"careguide/internal/delivery/dto"
	"careguide/internal/delivery/http/middleware"
	"careguide/internal/directory"
	"careguide/internal/domain/entity"
	"careguide/internal/usecase"
	"careguide/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type DirectoryHandler struct {
	profileUsecase usecase.ProfileUsecase
}

func NewDirectoryHandler(profileUsecase usecase.ProfileUsecase) *DirectoryHandler {
	return &DirectoryHandler{profileUsecase: profileUsecase}
}

func queryFromRequest(r *http.Request) dto.DirectoryQuery {
	q := r.URL.Query()
	return dto.DirectoryQuery{
		Search:     q.Get("search"),
		City:       q.Get("city"),
		Speciality: q.Get("speciality"),
	}
}

func directoryResponse(rows, filtered []entity.Profile) dto.DirectoryResponse {
	cities, specialities := directory.Options(rows)
	return dto.DirectoryResponse{
		Doctors:      converter.ProfilesToResponse(filtered),
		Total:        len(filtered),
		Cities:       cities,
		Specialities: specialities,
	}
}

// Directory lists the public doctor directory. No authentication.
func (h *DirectoryHandler) Directory(w http.ResponseWriter, r *http.Request) {
	query := queryFromRequest(r)

	rows, err := h.profileUsecase.ListDirectory(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to load directory")
		return
	}

	filtered := directory.Apply(rows, directory.Filter{
		Search:     query.Search,
		City:       query.City,
		Speciality: query.Speciality,
	})

	response.Success(w, http.StatusOK, "Directory retrieved successfully", directoryResponse(rows, filtered))
}

// ListDoctors is the admin view: every doctor in fetch order, e-mail
// searchable, unnamed profiles included.
func (h *DirectoryHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	query := queryFromRequest(r)

	rows, err := h.profileUsecase.ListByRole(r.Context(), entity.RoleDoctor, "", "")
	if err != nil {
		response.InternalServerError(w, "Failed to fetch doctors")
		return
	}

	filtered := directory.Apply(rows, directory.Filter{
		Search:       query.Search,
		City:         query.City,
		Speciality:   query.Speciality,
		IncludeEmail: true,
	})

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", directoryResponse(rows, filtered))
}

// DeleteDoctorRow removes only the profile row; the account stays.
func (h *DirectoryHandler) DeleteDoctorRow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	caller := middleware.GetPrincipalFromContext(r.Context())
	if err := h.profileUsecase.Delete(r.Context(), caller, id); err != nil {
		writeProfileError(w, err, "Failed to delete doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor profile deleted successfully", nil)
}
