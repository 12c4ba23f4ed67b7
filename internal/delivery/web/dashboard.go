package web

import (
	"errors"
	"net/http"
	"strings"

	"careguide/internal/delivery/dto"
	"careguide/internal/directory"
	"careguide/internal/domain/entity"
	"careguide/internal/infrastructure/functions"
	"careguide/internal/service"
	"careguide/internal/session"

	"github.com/gorilla/mux"
)

// MaxPhotoSize is the largest accepted profile photo upload.
const MaxPhotoSize = 5 << 20

const deleteDoctorFunction = "delete-doctor"

func (h *Handler) DoctorDashboard(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(r)
	if target := doctorGuard(snap); target != "" {
		redirect(w, r, target)
		return
	}

	h.render(w, r, http.StatusOK, "doctor_dashboard", "Doctor Dashboard", map[string]interface{}{
		"Form":           newProfileForm(snap.Profile),
		"Specialities":   entity.Specialities,
		"Availabilities": entity.Availabilities,
		"MaxPhotoMB":     MaxPhotoSize >> 20,
	})
}

// SaveProfile writes every field of the dashboard form. Empty fields clear
// their column.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(r)
	if target := doctorGuard(snap); target != "" {
		redirect(w, r, target)
		return
	}
	if err := r.ParseForm(); err != nil {
		flash(r, "Update failed", "The form could not be read.", session.FlashDestructive)
		redirect(w, r, "/doctor-dashboard")
		return
	}

	req := profileRequestFromForm(r)
	if _, err := h.profiles.UpdateOwn(r.Context(), principal(snap), req); err != nil {
		h.log.Warnf("Failed to update profile: %+v", err)
		flash(r, "Update failed", userMessage(err), session.FlashDestructive)
		redirect(w, r, "/doctor-dashboard")
		return
	}

	if store := storeFrom(r.Context()); store != nil {
		store.RefreshProfile(r.Context())
	}
	flash(r, "Profile updated", "Your profile has been successfully updated.", session.FlashDefault)
	redirect(w, r, "/doctor-dashboard")
}

func profileRequestFromForm(r *http.Request) *dto.UpdateProfileRequest {
	field := func(name string) *string {
		v := strings.TrimSpace(r.PostFormValue(name))
		return &v
	}
	return &dto.UpdateProfileRequest{
		FullName:          field("full_name"),
		PhoneNumber:       field("phone_number"),
		City:              field("city"),
		Hospital:          field("hospital"),
		Speciality:        field("speciality"),
		YearsOfExperience: field("years_of_experience"),
		Availability:      field("availability"),
		OPD:               field("opd"),
		Notes:             field("notes"),
	}
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(r)
	if target := doctorGuard(snap); target != "" {
		redirect(w, r, target)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(MaxPhotoSize); err != nil {
		flash(r, "Upload failed", "Photo must be an image of at most 5 MB.", session.FlashDestructive)
		redirect(w, r, "/doctor-dashboard")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		flash(r, "Upload failed", "Choose a photo to upload.", session.FlashDestructive)
		redirect(w, r, "/doctor-dashboard")
		return
	}
	defer file.Close()

	if header.Size > MaxPhotoSize {
		flash(r, "Upload failed", "Photo must be an image of at most 5 MB.", session.FlashDestructive)
		redirect(w, r, "/doctor-dashboard")
		return
	}

	if _, err := h.profiles.UploadPhoto(r.Context(), principal(snap), file); err != nil {
		h.log.Warnf("Failed to upload profile photo: %+v", err)
		flash(r, "Upload failed", userMessage(err), session.FlashDestructive)
		redirect(w, r, "/doctor-dashboard")
		return
	}

	if store := storeFrom(r.Context()); store != nil {
		store.RefreshProfile(r.Context())
	}
	flash(r, "Profile photo updated", "Your profile photo has been successfully updated.", session.FlashDefault)
	redirect(w, r, "/doctor-dashboard")
}

// AdminDashboard lists every doctor in fetch order with the console filters.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(r)
	if target := adminGuard(snap); target != "" {
		redirect(w, r, target)
		return
	}

	data := map[string]interface{}{"Loading": snap.Profile == nil}
	if snap.Profile == nil {
		h.render(w, r, http.StatusOK, "admin_dashboard", "Admin Dashboard", data)
		return
	}

	rows, err := h.profiles.ListByRole(r.Context(), entity.RoleDoctor, "", "")
	if err != nil {
		h.log.Warnf("Failed to fetch doctors: %+v", err)
		flash(r, "Error", "Failed to fetch doctors", session.FlashDestructive)
		rows = nil
	}

	filter := filterFromQuery(r)
	filter.IncludeEmail = true
	filtered := directory.Apply(rows, filter)

	data["Total"] = len(rows)
	data["Doctors"] = newDoctorCards(filtered)
	data["Filter"] = newFilterState(filter, rows)
	h.render(w, r, http.StatusOK, "admin_dashboard", "Admin Dashboard", data)
}

// DeleteDoctor removes a doctor through the privileged routine, which also
// deletes the auth account.
func (h *Handler) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(r)
	if target := adminGuard(snap); target != "" {
		redirect(w, r, target)
		return
	}

	store := storeFrom(r.Context())
	back := "/admin-dashboard"

	token, err := store.AccessToken(r.Context())
	if err != nil {
		flash(r, "Delete Failed", userMessage(err), session.FlashDestructive)
		redirect(w, r, back)
		return
	}

	var resp dto.DeleteDoctorResponse
	payload := dto.DeleteDoctorRequest{DoctorID: mux.Vars(r)["id"]}
	if err := h.functions.Invoke(r.Context(), deleteDoctorFunction, token, payload, &resp); err != nil {
		h.log.WithField("doctor_id", payload.DoctorID).Warnf("Failed to delete doctor: %+v", err)
		flash(r, "Delete Failed", userMessage(err), session.FlashDestructive)
		redirect(w, r, back)
		return
	}

	flash(r, "Doctor Deleted", resp.Message, session.FlashDefault)
	redirect(w, r, back)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(r)
	if target := adminGuard(snap); target != "" {
		redirect(w, r, target)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/admin-dashboard")
		return
	}

	// The store queues the outcome notification itself.
	_ = storeFrom(r.Context()).UpdatePassword(r.Context(),
		r.PostFormValue("password"),
		r.PostFormValue("confirm_password"),
	)
	redirect(w, r, "/admin-dashboard")
}

func filterFromQuery(r *http.Request) directory.Filter {
	q := r.URL.Query()
	return directory.Filter{
		Search:     q.Get("search"),
		City:       q.Get("city"),
		Speciality: q.Get("speciality"),
	}
}

// userMessage is the notification text for a failed action.
func userMessage(err error) string {
	var fnErr *functions.Error
	switch {
	case errors.As(err, &fnErr):
		return fnErr.Message
	case errors.Is(err, entity.ErrInvalidAvailability), errors.Is(err, service.ErrUnsupportedImage):
		return capitalizeFirst(err.Error())
	case errors.Is(err, session.ErrNoSession):
		return "You are not signed in"
	}
	return "Something went wrong. Please try again."
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
