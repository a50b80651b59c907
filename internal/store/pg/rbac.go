package pg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/janus/internal/store/core"
)

// ---------- Roles ----------

func (s *Store) InsertRole(ctx context.Context, r *core.Role) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	const q = `INSERT INTO roles (id, name) VALUES ($1, $2) RETURNING created_at`
	err := s.pool.QueryRow(ctx, q, r.ID, r.Name).Scan(&r.CreatedAt)
	return mapErr(err)
}

func (s *Store) UpdateRole(ctx context.Context, id, name string) (*core.Role, error) {
	const q = `
UPDATE roles SET name = $2 WHERE id = $1
RETURNING id, name, created_at`
	var r core.Role
	if err := s.pool.QueryRow(ctx, q, id, name).Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, mapErr(err)
	}
	return &r, nil
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	// Las aristas role_permissions/user_roles caen por ON DELETE CASCADE.
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) GetRoleByID(ctx context.Context, id string) (*core.Role, error) {
	const q = `SELECT id, name, created_at FROM roles WHERE id = $1`
	var r core.Role
	if err := s.pool.QueryRow(ctx, q, id).Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]core.Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Role
	for rows.Next() {
		var r core.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---------- Permissions ----------

func (s *Store) GetPermissionByID(ctx context.Context, id string) (*core.Permission, error) {
	const q = `SELECT id, name, created_at FROM permissions WHERE id = $1`
	var p core.Permission
	if err := s.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]core.Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Permission
	for rows.Next() {
		var p core.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SeedPermissions(ctx context.Context, names []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO permissions (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	for _, name := range names {
		if _, err := tx.Exec(ctx, q, uuid.NewString(), name); err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit(ctx)
}

// ---------- RolePermission edges ----------

func (s *Store) InsertRolePermission(ctx context.Context, roleID, permissionID string) error {
	const q = `INSERT INTO role_permissions (id, role_id, permission_id) VALUES ($1, $2, $3)`
	_, err := s.pool.Exec(ctx, q, uuid.NewString(), roleID, permissionID)
	return mapErr(err)
}

func (s *Store) DeleteRolePermission(ctx context.Context, roleID, permissionID string) error {
	const q = `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`
	tag, err := s.pool.Exec(ctx, q, roleID, permissionID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) ListRolePermissions(ctx context.Context, roleID string) ([]core.Permission, error) {
	const q = `
SELECT p.id, p.name, p.created_at
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = $1
ORDER BY p.name`
	rows, err := s.pool.Query(ctx, q, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Permission
	for rows.Next() {
		var p core.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---------- UserRole edges ----------

func (s *Store) InsertUserRole(ctx context.Context, userID, roleID string) error {
	const q = `INSERT INTO user_roles (id, user_id, role_id) VALUES ($1, $2, $3)`
	_, err := s.pool.Exec(ctx, q, uuid.NewString(), userID, roleID)
	return mapErr(err)
}

func (s *Store) DeleteUserRole(ctx context.Context, userID, roleID string) error {
	const q = `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`
	tag, err := s.pool.Exec(ctx, q, userID, roleID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) GetUserRoleIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// QueryPermissionsForRoles: cierre de permisos efectivos para un set de
// roles. Siempre va a la DB; el resultado no se cachea entre requests.
func (s *Store) QueryPermissionsForRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	const q = `
SELECT DISTINCT p.name
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = ANY($1)
ORDER BY p.name`
	rows, err := s.pool.Query(ctx, q, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
