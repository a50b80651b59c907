package rbac

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/store/storetest"
	"github.com/dropDatabas3/janus/internal/token"
)

type fixture struct {
	repo     *storetest.Repo
	eng      *token.Engine
	eval     *Evaluator
	svc      *Service
	sessions *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(seed)
	require.NoError(t, err)
	eng, err := token.NewEngine(token.Config{
		Issuer:      "janus-test",
		SigningSeed: base64.StdEncoding.EncodeToString(seed),
		AccessTTL:   30 * time.Minute,
		RefreshTTL:  24 * time.Hour,
	}, cache.NewMemory(""))
	require.NoError(t, err)

	repo := storetest.New()
	require.NoError(t, repo.SeedPermissions(context.Background(), core.PermissionCatalog))
	sessions := session.NewManager(repo, eng)
	return &fixture{
		repo:     repo,
		eng:      eng,
		eval:     NewEvaluator(repo, eng),
		svc:      NewService(repo, sessions),
		sessions: sessions,
	}
}

func (f *fixture) user(t *testing.T, login string, superuser bool) *core.User {
	t.Helper()
	u := &core.User{Login: login, Password: "$argon2id$...", Superuser: superuser}
	require.NoError(t, f.repo.InsertUser(context.Background(), u))
	return u
}

func (f *fixture) permID(t *testing.T, name string) string {
	t.Helper()
	perms, err := f.repo.ListPermissions(context.Background())
	require.NoError(t, err)
	for _, p := range perms {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("permiso %q no sembrado", name)
	return ""
}

func TestCheckAccess_SuperuserPasaSiempre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "root", true)

	raw, _, err := f.eng.IssueAccess(u.ID, nil, true)
	require.NoError(t, err)

	// sin permisos requeridos, con permisos desconocidos: da igual
	_, err = f.eval.CheckAccess(ctx, raw)
	require.NoError(t, err)
	_, err = f.eval.CheckAccess(ctx, raw, "no-existe")
	require.NoError(t, err)
}

func TestCheckAccess_InterseccionDePermisos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ana", false)

	role, err := f.svc.CreateRole(ctx, "editores")
	require.NoError(t, err)
	require.NoError(t, f.svc.AssignPermission(ctx, role.ID, f.permID(t, core.PermGeneralSubscriber)))

	raw, _, err := f.eng.IssueAccess(u.ID, []string{role.ID}, false)
	require.NoError(t, err)

	// alcanza con que UN permiso requerido esté en el cierre
	_, err = f.eval.CheckAccess(ctx, raw, core.PermGeneralSubscriber)
	require.NoError(t, err)
	_, err = f.eval.CheckAccess(ctx, raw, core.PermRoleManagement, core.PermGeneralSubscriber)
	require.NoError(t, err)

	_, err = f.eval.CheckAccess(ctx, raw, core.PermRoleManagement)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCheckAccess_SinRolesEsForbidden(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ana", false)

	raw, _, err := f.eng.IssueAccess(u.ID, nil, false)
	require.NoError(t, err)

	_, err = f.eval.CheckAccess(context.Background(), raw, core.PermGeneralSubscriber)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCheckAccess_QuitarAristaCortaAccesoInmediato(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ana", false)

	role, err := f.svc.CreateRole(ctx, "premium")
	require.NoError(t, err)
	permID := f.permID(t, core.PermPremiumSubscriber)
	require.NoError(t, f.svc.AssignPermission(ctx, role.ID, permID))

	raw, _, err := f.eng.IssueAccess(u.ID, []string{role.ID}, false)
	require.NoError(t, err)

	_, err = f.eval.CheckAccess(ctx, raw, core.PermPremiumSubscriber)
	require.NoError(t, err)

	// mismo token, sin la arista: Forbidden en la llamada siguiente
	require.NoError(t, f.svc.RemovePermission(ctx, role.ID, permID))
	_, err = f.eval.CheckAccess(ctx, raw, core.PermPremiumSubscriber)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCheckAccess_TokenRevocadoNoEvaluaPermisos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "root", true)

	raw, claims, err := f.eng.IssueAccess(u.ID, nil, true)
	require.NoError(t, err)
	_, err = f.eng.Revoke(ctx, claims, true)
	require.NoError(t, err)

	_, err = f.eval.CheckAccess(ctx, raw)
	require.ErrorIs(t, err, token.ErrTokenRevoked)
}

func TestRoles_CRUDYConflictos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.svc.CreateRole(ctx, "editores")
	require.NoError(t, err)
	require.NotEmpty(t, role.ID)

	_, err = f.svc.CreateRole(ctx, "editores")
	require.ErrorIs(t, err, core.ErrConflict)
	require.Equal(t, "name", core.ConflictField(err))

	_, err = f.svc.CreateRole(ctx, "   ")
	require.ErrorIs(t, err, ErrInvalidInput)

	renamed, err := f.svc.RenameRole(ctx, role.ID, "redactores")
	require.NoError(t, err)
	require.Equal(t, "redactores", renamed.Name)

	require.NoError(t, f.svc.DeleteRole(ctx, role.ID))
	require.ErrorIs(t, f.svc.DeleteRole(ctx, role.ID), core.ErrNotFound)
}

func TestAristas_PreChequeosYConflictos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.svc.CreateRole(ctx, "editores")
	require.NoError(t, err)
	permID := f.permID(t, core.PermUserManagement)

	// endpoints inexistentes: NotFound, no Conflict
	require.ErrorIs(t, f.svc.AssignPermission(ctx, "no-existe", permID), core.ErrNotFound)
	require.ErrorIs(t, f.svc.AssignPermission(ctx, role.ID, "no-existe"), core.ErrNotFound)

	require.NoError(t, f.svc.AssignPermission(ctx, role.ID, permID))
	err = f.svc.AssignPermission(ctx, role.ID, permID)
	require.ErrorIs(t, err, core.ErrConflict)

	perms, err := f.svc.RolePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	require.Equal(t, core.PermUserManagement, perms[0].Name)

	require.NoError(t, f.svc.RemovePermission(ctx, role.ID, permID))
	require.ErrorIs(t, f.svc.RemovePermission(ctx, role.ID, permID), core.ErrNotFound)
}

func TestAssignRole_CierraSesionesDelUsuario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ana", false)

	role, err := f.svc.CreateRole(ctx, "editores")
	require.NoError(t, err)

	// sesión viva previa al cambio de roles
	refreshRaw, refreshClaims, err := f.eng.IssueRefresh(u.ID)
	require.NoError(t, err)
	_, err = f.sessions.Create(ctx, u.ID, refreshRaw, refreshClaims)
	require.NoError(t, err)

	require.NoError(t, f.svc.AssignRole(ctx, u.ID, role.ID))

	_, err = f.eng.Verify(ctx, refreshRaw, token.TypeRefresh)
	require.ErrorIs(t, err, token.ErrTokenRevoked)

	// asignación duplicada: Conflict
	err = f.svc.AssignRole(ctx, u.ID, role.ID)
	require.ErrorIs(t, err, core.ErrConflict)
}

func TestRemoveRole_CierraSesionesDelUsuario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ana", false)

	role, err := f.svc.CreateRole(ctx, "editores")
	require.NoError(t, err)
	require.NoError(t, f.svc.AssignRole(ctx, u.ID, role.ID))

	refreshRaw, refreshClaims, err := f.eng.IssueRefresh(u.ID)
	require.NoError(t, err)
	_, err = f.sessions.Create(ctx, u.ID, refreshRaw, refreshClaims)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveRole(ctx, u.ID, role.ID))
	_, err = f.eng.Verify(ctx, refreshRaw, token.TypeRefresh)
	require.ErrorIs(t, err, token.ErrTokenRevoked)

	require.ErrorIs(t, f.svc.RemoveRole(ctx, u.ID, role.ID), core.ErrNotFound)
}
