package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/janus/internal/rbac"
	"github.com/dropDatabas3/janus/internal/store/core"
)

// RBACHandler atiende /v1/roles, /v1/permissions y /v1/users/*/roles/*.
type RBACHandler struct {
	svc *rbac.Service
}

func NewRBACHandler(svc *rbac.Service) *RBACHandler {
	return &RBACHandler{svc: svc}
}

type roleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toRoleResponse(r *core.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

type permissionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toPermissionList(perms []core.Permission) []permissionResponse {
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{ID: p.ID, Name: p.Name})
	}
	return out
}

type roleRequest struct {
	Name string `json:"name"`
}

// CreateRole maneja POST /v1/roles → 201/409.
func (h *RBACHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := ReadJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	role, err := h.svc.CreateRole(r.Context(), req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toRoleResponse(role))
}

// ListRoles maneja GET /v1/roles.
func (h *RBACHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.svc.ListRoles(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, toRoleResponse(&roles[i]))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"roles": out})
}

// GetRole maneja GET /v1/roles/{roleID}.
func (h *RBACHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.svc.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRoleResponse(role))
}

// PatchRole maneja PATCH /v1/roles/{roleID}: renombra el rol.
func (h *RBACHandler) PatchRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := ReadJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	role, err := h.svc.RenameRole(r.Context(), chi.URLParam(r, "roleID"), req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRoleResponse(role))
}

// DeleteRole maneja DELETE /v1/roles/{roleID} → 204.
func (h *RBACHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRole(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRolePermissions maneja GET /v1/roles/{roleID}/permissions.
func (h *RBACHandler) ListRolePermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.svc.RolePermissions(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"permissions": toPermissionList(perms)})
}

// AssignPermission maneja POST /v1/roles/{roleID}/permissions/{permissionID} → 201/404/409.
func (h *RBACHandler) AssignPermission(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	permID := chi.URLParam(r, "permissionID")
	if err := h.svc.AssignPermission(r.Context(), roleID, permID); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"role_id":       roleID,
		"permission_id": permID,
	})
}

// RemovePermission maneja DELETE /v1/roles/{roleID}/permissions/{permissionID} → 204.
func (h *RBACHandler) RemovePermission(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	permID := chi.URLParam(r, "permissionID")
	if err := h.svc.RemovePermission(r.Context(), roleID, permID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPermissions maneja GET /v1/permissions: el catálogo sembrado.
func (h *RBACHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.svc.ListPermissions(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"permissions": toPermissionList(perms)})
}

// AssignUserRole maneja POST /v1/users/{userID}/roles/{roleID} → 201.
// Cierra todas las sesiones del usuario afectado.
func (h *RBACHandler) AssignUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	roleID := chi.URLParam(r, "roleID")
	if err := h.svc.AssignRole(r.Context(), userID, roleID); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"user_id": userID,
		"role_id": roleID,
	})
}

// RemoveUserRole maneja DELETE /v1/users/{userID}/roles/{roleID} → 204.
func (h *RBACHandler) RemoveUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	roleID := chi.URLParam(r, "roleID")
	if err := h.svc.RemoveRole(r.Context(), userID, roleID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
