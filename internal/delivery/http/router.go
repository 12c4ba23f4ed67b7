package http

import (
	"net/http"

	"careguide/internal/delivery/http/handler"
	"careguide/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	profileHandler      *handler.ProfileHandler
	directoryHandler    *handler.DirectoryHandler
	deleteDoctorHandler *handler.DeleteDoctorHandler
	healthHandler       *handler.HealthHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	functionCORS        *middleware.CORSMiddleware
	roleResolver        middleware.RoleResolver
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	directoryHandler *handler.DirectoryHandler,
	deleteDoctorHandler *handler.DeleteDoctorHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	roleResolver middleware.RoleResolver,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		profileHandler:      profileHandler,
		directoryHandler:    directoryHandler,
		deleteDoctorHandler: deleteDoctorHandler,
		healthHandler:       healthHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      middleware.NewCORSMiddleware(),
		functionCORS:        middleware.NewFunctionCORSMiddleware(),
		roleResolver:        roleResolver,
	}
}

// Setup registers the JSON API under /api/v1 and the privileged routines at
// the root. The returned router is shared with the web delivery.
func (r *Router) Setup() *mux.Router {
	// Privileged routines answer any method; the handler rejects non-POST.
	r.router.Handle("/delete-doctor", r.functionCORS.Handle(http.HandlerFunc(r.deleteDoctorHandler.DeleteDoctor)))

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.Use(r.corsMiddleware.Handle)

	// Preflight for every API path
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, req *http.Request) {})

	// Health check
	api.HandleFunc("/health", r.healthHandler.Health).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", r.authHandler.SignUp).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/verify", r.authHandler.VerifyEmail).Methods(http.MethodGet)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)
	authProtected.HandleFunc("/password", r.authHandler.UpdatePassword).Methods(http.MethodPut)

	// Public directory
	api.HandleFunc("/directory", r.directoryHandler.Directory).Methods(http.MethodGet)

	// Profiles (protected)
	profiles := api.PathPrefix("/profiles").Subrouter()
	profiles.Use(r.authMiddleware.Authenticate)
	profiles.HandleFunc("/me", r.profileHandler.GetMyProfile).Methods(http.MethodGet)
	profiles.HandleFunc("/me", r.profileHandler.UpdateMyProfile).Methods(http.MethodPatch)
	profiles.HandleFunc("/me/photo", r.profileHandler.UploadPhoto).Methods(http.MethodPost)
	profiles.HandleFunc("/{id}", r.profileHandler.GetProfile).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin(r.roleResolver))
	admin.HandleFunc("/doctors", r.directoryHandler.ListDoctors).Methods(http.MethodGet)
	admin.HandleFunc("/doctors/{id}", r.directoryHandler.DeleteDoctorRow).Methods(http.MethodDelete)

	return r.router
}
