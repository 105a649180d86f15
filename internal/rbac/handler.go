package rbac

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/campuslink/campuslink/internal/transport"
	"github.com/campuslink/campuslink/pkg/logger"
	"github.com/go-chi/chi"
)

// Handler exposes the administrative RBAC surface: the permission
// catalog, role management, and per-user grant/revoke/assign operations.
type Handler struct {
	*transport.BaseHandler
	Service  *Service
	Resolver *Resolver
}

func NewHandler(service *Service, resolver *Resolver) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
		Resolver:    resolver,
	}
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.Logger.Error("ListPermissions: service error", "error", err)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"permissions": perms})
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		h.Logger.Error("ListRoles: service error", "error", err)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.Service.CreateRole(r.Context(), dto.ToRole())
	if err != nil {
		h.Logger.Error("CreateRole: service error", "error", err, "role", dto.Key)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleKey := chi.URLParam(r, "key")

	var dto SyncPermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.Service.SetRolePermissions(r.Context(), roleKey, dto.PermissionKeys)
	if err != nil {
		h.Logger.Error("SetRolePermissions: service error", "error", err, "role", roleKey)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) GetEffectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	permissions, err := h.Resolver.ComputeEffectivePermissions(r.Context(), userID)
	if err != nil {
		h.Logger.Error("GetEffectivePermissions: service error", "error", err, "user_id", userID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, EffectivePermissionsResponse{
		UserID:      userID,
		Permissions: permissions,
	})
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var dto GrantPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	grant, err := h.Service.GrantPermission(r.Context(), userID, dto.PermissionKey, dto.ExpiresAt)
	if err != nil {
		h.Logger.Error("GrantPermission: service error", "error", err,
			"user_id", userID, "permission", dto.PermissionKey)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, grant)
}

func (h *Handler) RemoveGrant(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	permissionKey := chi.URLParam(r, "permissionKey")

	if err := h.Service.RemoveGrant(r.Context(), userID, permissionKey); err != nil {
		h.Logger.Error("RemoveGrant: service error", "error", err,
			"user_id", userID, "permission", permissionKey)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "grant removed"})
}

func (h *Handler) SyncGrants(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var dto SyncPermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	grants, err := h.Service.SyncDirectGrants(r.Context(), userID, dto.PermissionKeys)
	if err != nil {
		h.Logger.Error("SyncGrants: service error", "error", err, "user_id", userID)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"grants": grants})
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var dto RevokePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	revocation, err := h.Service.RevokePermission(r.Context(), userID, dto.PermissionKey, dto.Reason)
	if err != nil {
		h.Logger.Error("RevokePermission: service error", "error", err,
			"user_id", userID, "permission", dto.PermissionKey)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, revocation)
}

func (h *Handler) RemoveRevocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	permissionKey := chi.URLParam(r, "permissionKey")

	if err := h.Service.RemoveRevocation(r.Context(), userID, permissionKey); err != nil {
		h.Logger.Error("RemoveRevocation: service error", "error", err,
			"user_id", userID, "permission", permissionKey)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "revocation removed"})
}

func (h *Handler) SyncRevocations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var dto SyncPermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	revocations, err := h.Service.SyncRevocations(r.Context(), userID, dto.PermissionKeys)
	if err != nil {
		h.Logger.Error("SyncRevocations: service error", "error", err, "user_id", userID)
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"revocations": revocations})
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var dto AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	scope, _ := dto.Scope.ToScope()
	assignment, err := h.Service.AssignRole(r.Context(), userID, dto.RoleKey, scope, dto.ExpiresAt)
	if err != nil {
		h.Logger.Error("AssignRole: service error", "error", err,
			"user_id", userID, "role", dto.RoleKey, "scope", scope.String())
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, AssignmentResponse(assignment))
}

func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	roleKey := chi.URLParam(r, "roleKey")

	scope, err := scopeFromQuery(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.RemoveRole(r.Context(), userID, roleKey, scope); err != nil {
		h.Logger.Error("RemoveRole: service error", "error", err,
			"user_id", userID, "role", roleKey, "scope", scope.String())
		h.writeDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "role assignment removed"})
}

func (h *Handler) SyncRoleAssignments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var dto SyncRoleAssignmentsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	desired := make([]RoleAssignmentSpec, 0, len(dto.Assignments))
	for _, assignment := range dto.Assignments {
		scope, _ := assignment.Scope.ToScope()
		desired = append(desired, RoleAssignmentSpec{
			RoleKey:   assignment.RoleKey,
			Scope:     scope,
			ExpiresAt: assignment.ExpiresAt,
		})
	}

	assignments, err := h.Service.SyncRoleAssignments(r.Context(), userID, desired)
	if err != nil {
		h.Logger.Error("SyncRoleAssignments: service error", "error", err, "user_id", userID)
		h.writeDomainError(w, err)
		return
	}

	responses := make([]RoleAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, AssignmentResponse(assignment))
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"assignments": responses})
}

func (h *Handler) userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return userID, true
}

func scopeFromQuery(r *http.Request) (Scope, error) {
	kind := ScopeKind(r.URL.Query().Get("scope_kind"))
	if kind == ScopeKindGlobal {
		return GlobalScope(), nil
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("scope_id"), 10, 64)
	if err != nil {
		return Scope{}, ErrInvalidScope
	}

	scope := Scope{Kind: kind, ID: id}
	if !scope.Valid() {
		return Scope{}, ErrInvalidScope
	}
	return scope, nil
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrRoleNotFound),
		errors.Is(err, ErrPermissionNotFound),
		errors.Is(err, ErrAssignmentNotFound),
		errors.Is(err, ErrScopeNotFound):
		h.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrGrantExists),
		errors.Is(err, ErrAlreadyRevoked),
		errors.Is(err, ErrAssignmentExists),
		errors.Is(err, ErrRoleExists):
		h.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidScope):
		h.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.HandleServiceError(w, err)
	}
}
