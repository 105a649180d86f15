package job

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

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateJobDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.Service.CreateJob(r.Context(), user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateJob: service error", "error", err, "user_id", user.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, job)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	job, err := h.Service.GetJob(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 20
	offset := 0
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

	jobs, err := h.Service.ListJobs(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.Logger.Error("ListJobs: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   jobs,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	var dto UpdateJobDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.Service.UpdateJob(r.Context(), user.ID, id, dto)
	if err != nil {
		h.Logger.Error("UpdateJob: service error", "error", err, "job_id", id)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	if err := h.Service.DeleteJob(r.Context(), user.ID, id); err != nil {
		h.Logger.Error("DeleteJob: service error", "error", err, "job_id", id)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "job deleted"})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrJobNotFound):
		h.WriteError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, ErrAccessDenied):
		h.WriteError(w, http.StatusForbidden, "insufficient permissions")
	default:
		h.HandleServiceError(w, err)
	}
}
