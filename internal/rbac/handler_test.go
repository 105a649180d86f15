package rbac_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/go-chi/chi"

	"github.com/campuslink/campuslink/internal/rbac"
)

var _ = Describe("Access Handler", func() {
	var (
		repo   *mockRepository
		router *chi.Mux
	)

	const userID = int64(42)

	BeforeEach(func() {
		repo = newMockRepository()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := rbac.NewService(repo, newMockScopeDirectory(), lg)
		resolver := rbac.NewResolver(repo, newMockDepartmentResolver(), lg)
		handler := rbac.NewHandler(service, resolver)

		router = chi.NewRouter()
		router.Route("/users/{id}/access", func(r chi.Router) {
			r.Get("/permissions", handler.GetEffectivePermissions)
			r.Post("/grants", handler.GrantPermission)
			r.Delete("/roles/{roleKey}", handler.RemoveRole)
		})

		repo.addUser(userID)
		repo.addPermission("news:publish")
	})

	do := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("GrantPermission", func() {
		It("creates a grant and reports a duplicate as a conflict", func() {
			w := do(http.MethodPost, "/users/42/access/grants", `{"permission_key":"news:publish"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))

			w = do(http.MethodPost, "/users/42/access/grants", `{"permission_key":"news:publish"}`)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("maps an unknown permission key to not found", func() {
			w := do(http.MethodPost, "/users/42/access/grants", `{"permission_key":"no:such"}`)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("maps an unknown user to not found", func() {
			w := do(http.MethodPost, "/users/999/access/grants", `{"permission_key":"news:publish"}`)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("RemoveRole", func() {
		It("reports a missing assignment as not found", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)

			w := do(http.MethodDelete, "/users/42/access/roles/UNIVERSITY_ADMIN?scope_kind=university&scope_id=5", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Body.String()).To(ContainSubstring("assignment"))
		})

		It("rejects a malformed scope", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)

			w := do(http.MethodDelete, "/users/42/access/roles/UNIVERSITY_ADMIN?scope_kind=university&scope_id=abc", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GetEffectivePermissions", func() {
		It("returns the granted set", func() {
			perm := repo.permissions["news:publish"]
			repo.grants = append(repo.grants, &rbac.DirectGrant{
				ID: 100, UserID: userID, PermissionID: perm.ID, Permission: perm,
			})

			w := do(http.MethodGet, "/users/42/access/permissions", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("news:publish"))
		})
	})
})
