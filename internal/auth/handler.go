package auth

import (
	"encoding/json"
	"net/http"

	"github.com/campuslink/campuslink/internal/transport"
	"github.com/campuslink/campuslink/pkg/logger"
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("login failed", "email", dto.Email, "error", err)
		h.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("token refresh failed", "error", err)
		h.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout is stateless: tokens are short-lived and the client discards
// them. The endpoint exists so clients have a uniform call shape.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// AuthMiddleware validates the bearer token and loads the user, with its
// effective permission set, into the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := h.Service.GetUserWithPermissions(r.Context(), claims.UserID)
		if err != nil {
			h.Logger.Error("failed to load authenticated user", "error", err, "user_id", claims.UserID)
			h.WriteError(w, http.StatusUnauthorized, "user not found")
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		ctx = logger.With(ctx, "user_id", user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
