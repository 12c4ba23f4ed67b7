package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"careguide/internal/delivery/dto"
	"careguide/internal/delivery/http/middleware"
	"careguide/internal/usecase"
	"careguide/pkg/response"
)

// DeleteDoctorHandler serves the privileged delete-doctor routine. Its
// bodies are bare {"error": ...} objects rather than the API envelope.
// CORS headers come from the function CORS middleware.
type DeleteDoctorHandler struct {
	deleteDoctorUsecase usecase.DeleteDoctorUsecase
}

func NewDeleteDoctorHandler(deleteDoctorUsecase usecase.DeleteDoctorUsecase) *DeleteDoctorHandler {
	return &DeleteDoctorHandler{deleteDoctorUsecase: deleteDoctorUsecase}
}

func (h *DeleteDoctorHandler) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		response.Plain(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	token, _ := middleware.BearerToken(r)
	caller, err := h.deleteDoctorUsecase.AuthorizeAdmin(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNotAuthorized):
			response.Plain(w, http.StatusForbidden, "Insufficient permissions")
		default:
			response.Plain(w, http.StatusUnauthorized, "Unauthorized")
		}
		return
	}

	var req dto.DeleteDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Plain(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.deleteDoctorUsecase.DeleteDoctor(r.Context(), caller, req.DoctorID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingDoctorID):
			response.Plain(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.Plain(w, http.StatusNotFound, "Doctor not found")
		default:
			response.Plain(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.JSON(w, http.StatusOK, resp)
}
