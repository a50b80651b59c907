package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/core"
)

// ErrInvalidInput: el request no pasa validación básica (nombre vacío).
var ErrInvalidInput = errors.New("rbac: invalid input")

// Service implementa el CRUD de roles y la gestión de aristas. Las
// mutaciones del grafo user↔role disparan logout_all del usuario
// afectado: su lista de roles viaja embebida en los tokens y quedó
// vieja, así que se lo obliga a re-autenticarse.
type Service struct {
	store    core.Repository
	sessions *session.Manager
}

func NewService(store core.Repository, sessions *session.Manager) *Service {
	return &Service{store: store, sessions: sessions}
}

// ----- Roles -----

func (s *Service) CreateRole(ctx context.Context, name string) (*core.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre de rol vacío", ErrInvalidInput)
	}
	r := &core.Role{Name: name}
	if err := s.store.InsertRole(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) RenameRole(ctx context.Context, id, name string) (*core.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre de rol vacío", ErrInvalidInput)
	}
	return s.store.UpdateRole(ctx, id, name)
}

// DeleteRole borra el rol; las aristas role↔permission y user↔role
// caen por cascada en el schema.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	return s.store.DeleteRole(ctx, id)
}

func (s *Service) GetRole(ctx context.Context, id string) (*core.Role, error) {
	return s.store.GetRoleByID(ctx, id)
}

func (s *Service) ListRoles(ctx context.Context) ([]core.Role, error) {
	return s.store.ListRoles(ctx)
}

// ----- Permissions (catálogo de solo lectura) -----

func (s *Service) ListPermissions(ctx context.Context) ([]core.Permission, error) {
	return s.store.ListPermissions(ctx)
}

// ----- RolePermission edges -----

// RolePermissions lista los permisos asignados a un rol. Pre-chequea
// que el rol exista para distinguir "rol sin permisos" de "rol
// inexistente".
func (s *Service) RolePermissions(ctx context.Context, roleID string) ([]core.Permission, error) {
	if _, err := s.store.GetRoleByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.store.ListRolePermissions(ctx, roleID)
}

// AssignPermission crea la arista role↔permission. Los endpoints se
// pre-chequean para devolver NotFound antes de tocar la tabla; la
// unicidad del par la garantiza el constraint y vuelve como Conflict.
func (s *Service) AssignPermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := s.store.GetRoleByID(ctx, roleID); err != nil {
		return err
	}
	if _, err := s.store.GetPermissionByID(ctx, permissionID); err != nil {
		return err
	}
	return s.store.InsertRolePermission(ctx, roleID, permissionID)
}

// RemovePermission borra la arista. Surte efecto inmediato en
// check_access: el cierre se resuelve en vivo, no hace falta invalidar
// tokens.
func (s *Service) RemovePermission(ctx context.Context, roleID, permissionID string) error {
	return s.store.DeleteRolePermission(ctx, roleID, permissionID)
}

// ----- UserRole edges -----

// AssignRole agrega el rol al usuario y después cierra todas sus
// sesiones: los tokens vivos llevan la lista de roles vieja.
func (s *Service) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.store.GetRoleByID(ctx, roleID); err != nil {
		return err
	}
	if err := s.store.InsertUserRole(ctx, userID, roleID); err != nil {
		return err
	}
	return s.forceReauth(ctx, userID)
}

// RemoveRole saca el rol del usuario y cierra sus sesiones por el mismo
// motivo que AssignRole.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID string) error {
	if err := s.store.DeleteUserRole(ctx, userID, roleID); err != nil {
		return err
	}
	return s.forceReauth(ctx, userID)
}

func (s *Service) forceReauth(ctx context.Context, userID string) error {
	revoked, err := s.sessions.LogoutAll(ctx, userID, nil)
	if err != nil {
		return fmt.Errorf("rbac: cerrar sesiones de %s: %w", userID, err)
	}
	logger.Named("rbac").Info("grafo de roles cambiado, sesiones cerradas",
		logger.UserID(userID), logger.Count(len(revoked)))
	return nil
}
