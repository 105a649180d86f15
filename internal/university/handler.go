package university

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

func (h *Handler) CreateUniversity(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateUniversityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.CreateUniversity(r.Context(), user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateUniversity: service error", "error", err, "user_id", user.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) GetUniversity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	u, err := h.Service.GetUniversity(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ListUniversities(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	universities, err := h.Service.ListUniversities(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.Logger.Error("ListUniversities: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list universities")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"universities": universities,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) UpdateUniversity(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	var dto UpdateUniversityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.UpdateUniversity(r.Context(), user.ID, id, dto)
	if err != nil {
		h.Logger.Error("UpdateUniversity: service error", "error", err, "university_id", id)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) DeleteUniversity(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteUniversity(r.Context(), user.ID, id); err != nil {
		h.Logger.Error("DeleteUniversity: service error", "error", err, "university_id", id)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "university deleted"})
}

func (h *Handler) CreateInstitution(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateInstitutionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inst, err := h.Service.CreateInstitution(r.Context(), user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateInstitution: service error", "error", err, "user_id", user.ID)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, inst)
}

func (h *Handler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	institutions, err := h.Service.ListInstitutions(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.Logger.Error("ListInstitutions: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list institutions")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"institutions": institutions,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateDepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dept, err := h.Service.CreateDepartment(r.Context(), user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateDepartment: service error", "error", err, "user_id", user.ID)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, dept)
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	dept, err := h.Service.GetDepartment(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dept)
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	departments, err := h.Service.ListDepartments(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.Logger.Error("ListDepartments: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list departments")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"departments": departments,
		"limit":       limit,
		"offset":      offset,
	})
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteDepartment(r.Context(), user.ID, id); err != nil {
		h.Logger.Error("DeleteDepartment: service error", "error", err, "department_id", id)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "department deleted"})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUniversityNotFound),
		errors.Is(err, ErrInstitutionNotFound),
		errors.Is(err, ErrDepartmentNotFound):
		h.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAccessDenied):
		h.WriteError(w, http.StatusForbidden, "insufficient permissions")
	default:
		h.HandleServiceError(w, err)
	}
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid ID")
		return 0, false
	}
	return id, true
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
