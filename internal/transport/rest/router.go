package rest

import (
	"log/slog"
	"net/http"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/job"
	"github.com/campuslink/campuslink/internal/news"
	"github.com/campuslink/campuslink/internal/rbac"
	"github.com/campuslink/campuslink/internal/scholarship"
	"github.com/campuslink/campuslink/internal/transport/middleware"
	"github.com/campuslink/campuslink/internal/transport/swagger"
	"github.com/campuslink/campuslink/internal/university"
	"github.com/campuslink/campuslink/internal/user"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
)

// PermManageAccess gates the RBAC administration surface.
const PermManageAccess = "access:manage"

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	University  *university.Handler
	Job         *job.Handler
	Scholarship *scholarship.Handler
	News        *news.Handler
	RBAC        *rbac.Handler
}

// RegisterAllRoutes mounts the complete API under /api/v1, plus the
// OpenAPI spec and Swagger UI at the server root.
func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Registration is the only unauthenticated user endpoint.
		r.Post("/users", h.User.Register)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Get("/users", h.User.ListUsers)
			pr.Patch("/users/{id}/deactivate", h.User.DeactivateUser)

			pr.Route("/universities", func(ur chi.Router) {
				ur.Post("/", h.University.CreateUniversity)
				ur.Get("/", h.University.ListUniversities)
				ur.Get("/{id}", h.University.GetUniversity)
				ur.Patch("/{id}", h.University.UpdateUniversity)
				ur.Delete("/{id}", h.University.DeleteUniversity)
			})

			pr.Route("/institutions", func(ir chi.Router) {
				ir.Post("/", h.University.CreateInstitution)
				ir.Get("/", h.University.ListInstitutions)
			})

			pr.Route("/departments", func(dr chi.Router) {
				dr.Post("/", h.University.CreateDepartment)
				dr.Get("/", h.University.ListDepartments)
				dr.Get("/{id}", h.University.GetDepartment)
				dr.Delete("/{id}", h.University.DeleteDepartment)
			})

			pr.Route("/jobs", func(jr chi.Router) {
				jr.Post("/", h.Job.CreateJob)
				jr.Get("/", h.Job.ListJobs)
				jr.Get("/{id}", h.Job.GetJob)
				jr.Patch("/{id}", h.Job.UpdateJob)
				jr.Delete("/{id}", h.Job.DeleteJob)
			})

			pr.Route("/scholarships", func(sr chi.Router) {
				sr.Post("/", h.Scholarship.CreateScholarship)
				sr.Get("/", h.Scholarship.ListScholarships)
				sr.Get("/{id}", h.Scholarship.GetScholarship)
				sr.Delete("/{id}", h.Scholarship.DeleteScholarship)
			})

			pr.Route("/news", func(nr chi.Router) {
				nr.Post("/", h.News.CreateArticle)
				nr.Get("/", h.News.ListArticles)
				nr.Get("/{id}", h.News.GetArticle)
				nr.Patch("/{id}", h.News.UpdateArticle)
				nr.Post("/{id}/publish", h.News.PublishArticle)
				nr.Delete("/{id}", h.News.DeleteArticle)
			})

			// RBAC administration. The route guard checks the caller's
			// globally effective permissions; scoped decisions live in
			// the rbac service itself.
			pr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequirePermissions(PermManageAccess))

				ar.Get("/permissions", h.RBAC.ListPermissions)
				ar.Route("/roles", func(rr chi.Router) {
					rr.Get("/", h.RBAC.ListRoles)
					rr.Post("/", h.RBAC.CreateRole)
					rr.Put("/{key}/permissions", h.RBAC.SetRolePermissions)
				})

				ar.Route("/users/{id}/access", func(ur chi.Router) {
					ur.Get("/permissions", h.RBAC.GetEffectivePermissions)

					ur.Post("/grants", h.RBAC.GrantPermission)
					ur.Put("/grants", h.RBAC.SyncGrants)
					ur.Delete("/grants/{permissionKey}", h.RBAC.RemoveGrant)

					ur.Post("/revocations", h.RBAC.RevokePermission)
					ur.Put("/revocations", h.RBAC.SyncRevocations)
					ur.Delete("/revocations/{permissionKey}", h.RBAC.RemoveRevocation)

					ur.Post("/roles", h.RBAC.AssignRole)
					ur.Put("/roles", h.RBAC.SyncRoleAssignments)
					ur.Delete("/roles/{roleKey}", h.RBAC.RemoveRole)
				})
			})
		})
	})
}
