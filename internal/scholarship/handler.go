package scholarship

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

func (h *Handler) CreateScholarship(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateScholarshipDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sch, err := h.Service.CreateScholarship(r.Context(), user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateScholarship: service error", "error", err, "user_id", user.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, sch)
}

func (h *Handler) GetScholarship(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid scholarship ID")
		return
	}

	sch, err := h.Service.GetScholarship(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sch)
}

func (h *Handler) ListScholarships(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 20
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	items, err := h.Service.ListScholarships(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) DeleteScholarship(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid scholarship ID")
		return
	}

	if err := h.Service.DeleteScholarship(r.Context(), user.ID, id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "scholarship deleted"})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrScholarshipNotFound):
		h.WriteError(w, http.StatusNotFound, "scholarship not found")
	case errors.Is(err, ErrAccessDenied):
		h.WriteError(w, http.StatusForbidden, "insufficient permissions")
	default:
		h.HandleServiceError(w, err)
	}
}
