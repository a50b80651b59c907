package core

import (
	"context"
	"time"
)

// Repository es el contrato con el almacén relacional.
// Las violaciones de unicidad vuelven como *ConflictError; las FKs a
// entidades inexistentes como ErrNotFound. Toda escritura multi-statement
// corre dentro de una transacción del driver.
type Repository interface {
	Ping(ctx context.Context) error
	Close()

	// Users
	FindUserByLogin(ctx context.Context, login string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	InsertUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error

	// Sessions
	InsertSession(ctx context.Context, s *Session) error
	// QuerySessions lista sesiones del usuario ordenadas por created_at
	// descendente. Con onlyActive filtra expires_at > now.
	QuerySessions(ctx context.Context, userID string, onlyActive bool, limit, offset int) ([]Session, error)
	CountSessions(ctx context.Context, userID string, onlyActive bool) (int, error)

	// Roles
	InsertRole(ctx context.Context, r *Role) error
	UpdateRole(ctx context.Context, id, name string) (*Role, error)
	DeleteRole(ctx context.Context, id string) error
	GetRoleByID(ctx context.Context, id string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)

	// Permissions (catálogo sembrado, solo lectura por API)
	GetPermissionByID(ctx context.Context, id string) (*Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	// SeedPermissions inserta el catálogo de forma idempotente
	// (ON CONFLICT DO NOTHING). Se llama una vez en bootstrap.
	SeedPermissions(ctx context.Context, names []string) error

	// RolePermission edges
	InsertRolePermission(ctx context.Context, roleID, permissionID string) error
	DeleteRolePermission(ctx context.Context, roleID, permissionID string) error
	ListRolePermissions(ctx context.Context, roleID string) ([]Permission, error)

	// UserRole edges
	InsertUserRole(ctx context.Context, userID, roleID string) error
	DeleteUserRole(ctx context.Context, userID, roleID string) error
	GetUserRoleIDs(ctx context.Context, userID string) ([]string, error)

	// QueryPermissionsForRoles resuelve el cierre de permisos (nombres)
	// alcanzable desde un conjunto de roles. Lookup vivo en cada check:
	// quitar una arista role↔permission surte efecto inmediato aunque el
	// token siga llevando el rol.
	QueryPermissionsForRoles(ctx context.Context, roleIDs []string) ([]string, error)
}

// Límites de paginación del historial de sesiones.
const (
	SessionPageSizeDefault = 100
	SessionPageSizeMax     = 500
)

// ClampSessionPage normaliza page/size a los límites del listado:
// size ∈ [1,500] con default 100, page ≥ 1.
func ClampSessionPage(page, size int) (int, int) {
	if size < 1 || size > SessionPageSizeMax {
		size = SessionPageSizeDefault
	}
	if page < 1 {
		page = 1
	}
	return page, size
}

// SessionIsActive indica si la sesión todavía no expiró.
func SessionIsActive(s *Session, now time.Time) bool {
	return s.ExpiresAt.After(now)
}
