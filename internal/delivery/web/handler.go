// Package web serves the server-rendered pages of the directory.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"careguide/internal/domain/entity"
	"careguide/internal/session"
	"careguide/internal/usecase"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	// SessionCookie ties a browser to its session store.
	SessionCookie = "careguide_sid"
	csrfCookie    = "careguide_csrf"

	sessionCookieMaxAge = 30 * 24 * time.Hour
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"landing",
	"doctor_auth",
	"admin_auth",
	"doctor_dashboard",
	"admin_dashboard",
	"directory",
	"not_found",
}

// StoreSource hands out the session store of a browser. *session.Registry
// implements it.
type StoreSource interface {
	Get(ctx context.Context, id string) (*session.Store, error)
}

// EmailVerifier confirms an address from a verification link.
type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

// FunctionInvoker calls a privileged routine with the user's own token.
type FunctionInvoker interface {
	Invoke(ctx context.Context, name, accessToken string, payload, out interface{}) error
}

type Options struct {
	BaseURL       string
	CSRFKey       []byte
	SecureCookies bool
}

type Handler struct {
	log       *logrus.Logger
	stores    StoreSource
	profiles  usecase.ProfileUsecase
	verifier  EmailVerifier
	functions FunctionInvoker
	templates map[string]*template.Template
	opts      Options
}

func NewHandler(
	log *logrus.Logger,
	stores StoreSource,
	profiles usecase.ProfileUsecase,
	verifier EmailVerifier,
	functions FunctionInvoker,
	opts Options,
) (*Handler, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &Handler{
		log:       log,
		stores:    stores,
		profiles:  profiles,
		verifier:  verifier,
		functions: functions,
		templates: templates,
		opts:      opts,
	}, nil
}

var templateFuncs = template.FuncMap{
	"dict": dict,
}

func parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tpl, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/partials.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		templates[page] = tpl
	}
	return templates, nil
}

// Register mounts the pages on r. It must run after the API routes so
// those match first; unmatched paths get the not-found page.
func (h *Handler) Register(r *mux.Router) {
	protect := csrf.Protect(h.opts.CSRFKey,
		csrf.Secure(h.opts.SecureCookies),
		csrf.Path("/"),
		csrf.CookieName(csrfCookie),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.HttpOnly(true),
	)

	site := r.PathPrefix("/").Subrouter()
	site.Use(h.plaintext, protect, h.withStore)

	site.HandleFunc("/", h.Landing).Methods(http.MethodGet)

	site.HandleFunc("/doctor-auth", h.DoctorAuth).Methods(http.MethodGet)
	site.HandleFunc("/doctor-auth/sign-in", h.DoctorSignIn).Methods(http.MethodPost)
	site.HandleFunc("/doctor-auth/sign-up", h.DoctorSignUp).Methods(http.MethodPost)
	site.HandleFunc("/admin-auth", h.AdminAuth).Methods(http.MethodGet)
	site.HandleFunc("/admin-auth", h.AdminSignIn).Methods(http.MethodPost)
	site.HandleFunc("/sign-out", h.SignOut).Methods(http.MethodPost)
	site.HandleFunc("/auth/verify", h.VerifyEmail).Methods(http.MethodGet)

	site.HandleFunc("/doctor-dashboard", h.DoctorDashboard).Methods(http.MethodGet)
	site.HandleFunc("/doctor-dashboard/profile", h.SaveProfile).Methods(http.MethodPost)
	site.HandleFunc("/doctor-dashboard/photo", h.UploadPhoto).Methods(http.MethodPost)

	site.HandleFunc("/admin-dashboard", h.AdminDashboard).Methods(http.MethodGet)
	site.HandleFunc("/admin-dashboard/doctors/{id}/delete", h.DeleteDoctor).Methods(http.MethodPost)
	site.HandleFunc("/admin-dashboard/password", h.ChangePassword).Methods(http.MethodPost)

	site.HandleFunc("/directory", h.Directory).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
}

// plaintext marks requests as plain HTTP when cookies are not secure, so the
// CSRF check does not demand a TLS referer during development.
func (h *Handler) plaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.opts.SecureCookies {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

type storeKey struct{}

// withStore resolves the session store of the browser, issuing a session
// cookie on the first visit.
func (h *Handler) withStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(sessionCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   h.opts.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		store, err := h.stores.Get(r.Context(), id)
		if err != nil {
			// The store still works without a restored session.
			h.log.WithField("session_id", id).Warnf("Failed to restore session: %+v", err)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), storeKey{}, store)))
	})
}

// sessionID returns the cookie value when it is a well-formed id.
func sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

func storeFrom(ctx context.Context) *session.Store {
	store, _ := ctx.Value(storeKey{}).(*session.Store)
	return store
}

type pageData struct {
	Title    string
	Snapshot session.Snapshot
	Flashes  []session.Flash
	CSRF     template.HTML
	Page     interface{}
}

// IsAdmin and IsDoctor drive the navigation links of the layout.
func (d pageData) IsAdmin() bool {
	return d.Snapshot.Role() == entity.RoleAdmin
}

func (d pageData) IsDoctor() bool {
	return d.Snapshot.Role() == entity.RoleDoctor
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data interface{}) {
	tpl, ok := h.templates[page]
	if !ok {
		h.log.Errorf("Unknown page template %q", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	pd := pageData{
		Title: title,
		CSRF:  csrf.TemplateField(r),
		Page:  data,
	}
	if store := storeFrom(r.Context()); store != nil {
		pd.Snapshot = store.Snapshot()
		pd.Flashes = store.DrainFlashes()
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, pd); err != nil {
		h.log.Warnf("Failed to render %s: %+v", page, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// dict builds the argument map of a partial template from key/value pairs.
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs key/value pairs")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// flash queues a notification for the next page of this browser.
func flash(r *http.Request, title, description string, variant session.FlashVariant) {
	if store := storeFrom(r.Context()); store != nil {
		store.AddFlash(session.Flash{Title: title, Description: description, Variant: variant})
	}
}

// snapshot of the browser's store; the zero Snapshot when none is attached.
func snapshot(r *http.Request) session.Snapshot {
	if store := storeFrom(r.Context()); store != nil {
		return store.Snapshot()
	}
	return session.Snapshot{}
}

func principal(snap session.Snapshot) *entity.Principal {
	if snap.User == nil {
		return nil
	}
	return &entity.Principal{UserID: snap.User.ID, Email: snap.User.Email}
}

// safeRedirect keeps post-verification redirects on this site.
func safeRedirect(target, baseURL string) string {
	switch {
	case target == "":
		return "/"
	case strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\"):
		return target
	case baseURL != "" && (target == baseURL || strings.HasPrefix(target, strings.TrimRight(baseURL, "/")+"/")):
		return target
	}
	return "/"
}
