// Package storetest provee un core.Repository en memoria para los tests
// de los servicios. Replica la semántica del store de Postgres: unicidad
// como *ConflictError, FKs inexistentes como ErrNotFound, orden de
// sesiones por created_at descendente.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/store/core"
)

type Repo struct {
	mu sync.Mutex

	users       map[string]*core.User    // id -> user
	roles       map[string]*core.Role    // id -> role
	permissions []core.Permission        // orden de siembra
	sessions    []core.Session           // orden de inserción
	rolePerms   map[string]map[string]bool // roleID -> permID -> present
	userRoles   map[string]map[string]bool // userID -> roleID -> present
}

var _ core.Repository = (*Repo)(nil)

func New() *Repo {
	return &Repo{
		users:     map[string]*core.User{},
		roles:     map[string]*core.Role{},
		rolePerms: map[string]map[string]bool{},
		userRoles: map[string]map[string]bool{},
	}
}

func (r *Repo) Ping(ctx context.Context) error { return nil }
func (r *Repo) Close()                         {}

// ----- Users -----

func (r *Repo) FindUserByLogin(ctx context.Context, login string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *Repo) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Repo) InsertUser(ctx context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if ex.Login == u.Login {
			return &core.ConflictError{Field: "login"}
		}
		if u.Email != nil && ex.Email != nil && *ex.Email == *u.Email {
			return &core.ConflictError{Field: "email"}
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *Repo) UpdateUser(ctx context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.users[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.Login == u.Login {
			return &core.ConflictError{Field: "login"}
		}
		if u.Email != nil && other.Email != nil && *other.Email == *u.Email {
			return &core.ConflictError{Field: "email"}
		}
	}
	cp := *u
	cp.CreatedAt = ex.CreatedAt
	r.users[u.ID] = &cp
	return nil
}

// ----- Sessions -----

func (r *Repo) InsertSession(ctx context.Context, s *core.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[s.UserID]; !ok {
		return core.ErrNotFound
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.sessions = append(r.sessions, *s)
	return nil
}

func (r *Repo) QuerySessions(ctx context.Context, userID string, onlyActive bool, limit, offset int) ([]core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	out := make([]core.Session, 0)
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if onlyActive && !s.ExpiresAt.After(now) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repo) CountSessions(ctx context.Context, userID string, onlyActive bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	n := 0
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if onlyActive && !s.ExpiresAt.After(now) {
			continue
		}
		n++
	}
	return n, nil
}

// ----- Roles -----

func (r *Repo) InsertRole(ctx context.Context, role *core.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.roles {
		if ex.Name == role.Name {
			return &core.ConflictError{Field: "name"}
		}
	}
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *Repo) UpdateRole(ctx context.Context, id, name string) (*core.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	for roleID, ex := range r.roles {
		if roleID != id && ex.Name == name {
			return nil, &core.ConflictError{Field: "name"}
		}
	}
	role.Name = name
	cp := *role
	return &cp, nil
}

func (r *Repo) DeleteRole(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.roles, id)
	delete(r.rolePerms, id)
	for _, set := range r.userRoles {
		delete(set, id)
	}
	return nil
}

func (r *Repo) GetRoleByID(ctx context.Context, id string) (*core.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *Repo) ListRoles(ctx context.Context) ([]core.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ----- Permissions -----

func (r *Repo) GetPermissionByID(ctx context.Context, id string) (*core.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.permissions {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *Repo) ListPermissions(ctx context.Context) ([]core.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Permission, len(r.permissions))
	copy(out, r.permissions)
	return out, nil
}

func (r *Repo) SeedPermissions(ctx context.Context, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		exists := false
		for _, p := range r.permissions {
			if p.Name == name {
				exists = true
				break
			}
		}
		if !exists {
			r.permissions = append(r.permissions, core.Permission{
				ID:        uuid.NewString(),
				Name:      name,
				CreatedAt: time.Now().UTC(),
			})
		}
	}
	return nil
}

// ----- RolePermission edges -----

func (r *Repo) InsertRolePermission(ctx context.Context, roleID, permissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[roleID]; !ok {
		return core.ErrNotFound
	}
	found := false
	for _, p := range r.permissions {
		if p.ID == permissionID {
			found = true
			break
		}
	}
	if !found {
		return core.ErrNotFound
	}
	set := r.rolePerms[roleID]
	if set == nil {
		set = map[string]bool{}
		r.rolePerms[roleID] = set
	}
	if set[permissionID] {
		return &core.ConflictError{Field: "role_permission"}
	}
	set[permissionID] = true
	return nil
}

func (r *Repo) DeleteRolePermission(ctx context.Context, roleID, permissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.rolePerms[roleID]
	if set == nil || !set[permissionID] {
		return core.ErrNotFound
	}
	delete(set, permissionID)
	return nil
}

func (r *Repo) ListRolePermissions(ctx context.Context, roleID string) ([]core.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Permission, 0)
	for _, p := range r.permissions {
		if r.rolePerms[roleID][p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// ----- UserRole edges -----

func (r *Repo) InsertUserRole(ctx context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return core.ErrNotFound
	}
	if _, ok := r.roles[roleID]; !ok {
		return core.ErrNotFound
	}
	set := r.userRoles[userID]
	if set == nil {
		set = map[string]bool{}
		r.userRoles[userID] = set
	}
	if set[roleID] {
		return &core.ConflictError{Field: "user_role"}
	}
	set[roleID] = true
	return nil
}

func (r *Repo) DeleteUserRole(ctx context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.userRoles[userID]
	if set == nil || !set[roleID] {
		return core.ErrNotFound
	}
	delete(set, roleID)
	return nil
}

func (r *Repo) GetUserRoleIDs(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.userRoles[userID]))
	for roleID := range r.userRoles[userID] {
		out = append(out, roleID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repo) QueryPermissionsForRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, roleID := range roleIDs {
		for permID := range r.rolePerms[roleID] {
			for _, p := range r.permissions {
				if p.ID == permID && !seen[p.Name] {
					seen[p.Name] = true
					out = append(out, p.Name)
				}
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
