package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/transport"
	"github.com/campuslink/campuslink/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
	}
}

// Register is the only unauthenticated user endpoint.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Error("Register: service error", "error", err)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ProfileFrom(u))
}

// GetCurrentUser returns the caller's profile with effective
// permissions attached.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.UserFromContext(r.Context())
	if !ok || authUser == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetUser(r.Context(), authUser.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	profile := ProfileFrom(u)
	profile.Permissions = authUser.Permissions
	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.UserFromContext(r.Context())
	if !ok || authUser == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	users, err := h.Service.ListUsers(r.Context(), authUser.ID, limit, offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	profiles := make([]ProfileResponse, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, ProfileFrom(u))
	}
	h.WriteJSON(w, http.StatusOK, profiles)
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.UserFromContext(r.Context())
	if !ok || authUser == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if err := h.Service.DeactivateUser(r.Context(), authUser.ID, id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		h.WriteError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrEmailTaken):
		h.WriteError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, ErrAccessDenied):
		h.WriteError(w, http.StatusForbidden, "insufficient permissions")
	default:
		h.HandleServiceError(w, err)
	}
}
