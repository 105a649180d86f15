package news

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

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateArticleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := h.Service.CreateArticle(r.Context(), user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateArticle: service error", "error", err, "user_id", user.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, article)
}

func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid article ID")
		return
	}

	article, err := h.Service.GetArticle(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)

	var (
		items []*Article
		err   error
	)
	if r.URL.Query().Get("status") == StatusDraft {
		items, err = h.Service.ListDrafts(r.Context(), user.ID, limit, offset)
	} else {
		items, err = h.Service.ListArticles(r.Context(), user.ID, limit, offset)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid article ID")
		return
	}

	var dto UpdateArticleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := h.Service.UpdateArticle(r.Context(), user.ID, id, dto)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) PublishArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid article ID")
		return
	}

	article, err := h.Service.PublishArticle(r.Context(), user.ID, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid article ID")
		return
	}

	if err := h.Service.DeleteArticle(r.Context(), user.ID, id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "article deleted"})
}

func pagination(r *http.Request) (limit, offset int) {
	limit, offset = 20, 0
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
	return limit, offset
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrArticleNotFound):
		h.WriteError(w, http.StatusNotFound, "article not found")
	case errors.Is(err, ErrAccessDenied):
		h.WriteError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, ErrAlreadyPublished):
		h.WriteError(w, http.StatusConflict, "article already published")
	default:
		h.HandleServiceError(w, err)
	}
}
