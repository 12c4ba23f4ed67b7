package web

import (
	"net/http"
	"strings"

	"careguide/internal/domain/entity"
	"careguide/internal/session"
)

func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "landing", "CareGuide", nil)
}

// DoctorAuth shows the sign-in and sign-up tabs. A signed-in user with a
// profile goes straight to the dashboard.
func (h *Handler) DoctorAuth(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(r)
	if snap.User != nil && snap.Profile != nil {
		redirect(w, r, "/doctor-dashboard")
		return
	}

	tab := "sign-in"
	if r.URL.Query().Get("tab") == "sign-up" {
		tab = "sign-up"
	}
	h.render(w, r, http.StatusOK, "doctor_auth", "Doctor Portal", map[string]interface{}{
		"Tab":          tab,
		"Specialities": entity.Specialities,
	})
}

func (h *Handler) DoctorSignIn(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r.Context())
	if store == nil || r.ParseForm() != nil {
		redirect(w, r, "/doctor-auth")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	if err := store.SignInWithEmail(r.Context(), email, r.PostFormValue("password")); err != nil {
		redirect(w, r, "/doctor-auth")
		return
	}
	redirect(w, r, "/doctor-dashboard")
}

func (h *Handler) DoctorSignUp(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r.Context())
	if store == nil || r.ParseForm() != nil {
		redirect(w, r, "/doctor-auth?tab=sign-up")
		return
	}

	err := store.SignUpWithEmail(r.Context(),
		strings.TrimSpace(r.PostFormValue("email")),
		r.PostFormValue("password"),
		session.SignUpData{
			FullName: strings.TrimSpace(r.PostFormValue("full_name")),
			Role:     entity.RoleDoctor,
		},
	)
	if err != nil {
		redirect(w, r, "/doctor-auth?tab=sign-up")
		return
	}
	redirect(w, r, "/doctor-auth")
}

func (h *Handler) AdminAuth(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(r)
	if snap.User != nil && snap.Role() == entity.RoleAdmin {
		redirect(w, r, "/admin-dashboard")
		return
	}
	h.render(w, r, http.StatusOK, "admin_auth", "Admin Portal", nil)
}

func (h *Handler) AdminSignIn(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r.Context())
	if store == nil || r.ParseForm() != nil {
		redirect(w, r, "/admin-auth")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	if err := store.SignInWithEmail(r.Context(), email, r.PostFormValue("password")); err != nil {
		redirect(w, r, "/admin-auth")
		return
	}

	store.AddFlash(session.Flash{
		Title:       "Login Successful",
		Description: "Welcome to Admin Dashboard",
		Variant:     session.FlashDefault,
	})
	// The dashboard guard sends non-admins on to the landing page.
	redirect(w, r, "/admin-dashboard")
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if store := storeFrom(r.Context()); store != nil {
		store.SignOut(r.Context())
	}
	redirect(w, r, "/")
}

// VerifyEmail is the landing point of the confirmation link.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	target := safeRedirect(r.URL.Query().Get("redirect_to"), h.opts.BaseURL)

	if err := h.verifier.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		h.log.Debugf("Email verification failed: %+v", err)
		flash(r, "Verification Failed", "This verification link is invalid or has expired.", session.FlashDestructive)
		redirect(w, r, target)
		return
	}

	flash(r, "Email Verified", "Your email has been confirmed. You can sign in now.", session.FlashDefault)
	redirect(w, r, target)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.log.WithField("path", r.URL.Path).Debug("Page not found")
	h.render(w, r, http.StatusNotFound, "not_found", "Page not found", map[string]interface{}{
		"Path": r.URL.Path,
	})
}
