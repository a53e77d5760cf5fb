package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-notes-server/internal/authz"
	"go-notes-server/internal/config"
	"go-notes-server/internal/handler"
	"go-notes-server/internal/metrics"
	"go-notes-server/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authzMiddleware *middleware.AuthzMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	authHandler *handler.AuthHandler,
	sessionHandler *handler.SessionHandler,
	noteHandler *handler.NoteHandler,
	userHandler *handler.UserHandler,
	healthHandler *handler.HealthHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.Post("/logout", authHandler.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
			auth.With(authMiddleware.RequireAuth).Get("/sessions", sessionHandler.ListOwn)
			auth.With(authMiddleware.RequireAuth).Delete("/sessions", sessionHandler.RevokeOwn)
		})

		api.Route("/notes", func(notes chi.Router) {
			notes.Use(authMiddleware.RequireAuth)
			notes.Get("/", noteHandler.List)
			notes.Post("/", noteHandler.Create)
			notes.Get("/{note_id}", noteHandler.Get)
			notes.Put("/{note_id}", noteHandler.Update)
			notes.Delete("/{note_id}", noteHandler.Delete)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.With(authzMiddleware.RequirePermissions(authz.PermUsersRead)).Get("/users", userHandler.List)
			admin.With(authzMiddleware.RequirePermissions(authz.PermUsersWrite)).Put("/users/{user_id}/role", userHandler.UpdateRole)
			admin.With(authzMiddleware.RequirePermissions(authz.PermSessionsRead, authz.PermUsersRead)).Get("/users/{user_id}/sessions", sessionHandler.ListForUser)
			admin.With(authzMiddleware.RequireRole(authz.RoleSuperAdmin)).Delete("/users/{user_id}/sessions", sessionHandler.RevokeForUser)
		})
	})

	return r
}
