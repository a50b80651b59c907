package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/janus/internal/auth"
	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/rbac"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/store/storetest"
	"github.com/dropDatabas3/janus/internal/token"
)

type env struct {
	repo   *storetest.Repo
	eng    *token.Engine
	router http.Handler
}

func newEnv(t *testing.T) *env {
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
	authSvc := auth.NewService(repo, eng, sessions)
	profiles := profile.NewService(repo)
	eval := rbac.NewEvaluator(repo, eng)
	rbacSvc := rbac.NewService(repo, sessions)

	router := NewRouter(Deps{
		Auth:   NewAuthHandler(authSvc, profiles, sessions),
		RBAC:   NewRBACHandler(rbacSvc),
		Tokens: eng,
		Eval:   eval,
		Store:  repo,
		Cache:  cache.NewMemory(""),
	})
	return &env{repo: repo, eng: eng, router: router}
}

func (e *env) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func (e *env) signup(t *testing.T, login, pw string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"login": login, "password": pw,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var out struct {
		ID string `json:"id"`
	}
	decode(t, rec, &out)
	return out.ID
}

func (e *env) login(t *testing.T, login, pw string) tokenResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"login": login, "password": pw,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var out tokenResponse
	decode(t, rec, &out)
	return out
}

func TestFlujoCompleto(t *testing.T) {
	e := newEnv(t)

	// signup → login → history(1) → login → history(2) → access-revoke → profile 401
	id := e.signup(t, "alice", "pw1")
	require.NotEmpty(t, id)

	first := e.login(t, "alice", "pw1")
	require.NotEmpty(t, first.AccessToken)
	require.NotEmpty(t, first.RefreshToken)
	require.NotEmpty(t, first.SessionID)

	rec := e.do(t, http.MethodGet, "/v1/auth/history", first.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Sessions []sessionResponse `json:"sessions"`
		Total    int               `json:"total"`
	}
	decode(t, rec, &hist)
	require.Equal(t, 1, hist.Total)
	require.Len(t, hist.Sessions, 1)

	second := e.login(t, "alice", "pw1")
	rec = e.do(t, http.MethodGet, "/v1/auth/history", second.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &hist)
	require.Equal(t, 2, hist.Total)

	rec = e.do(t, http.MethodDelete, "/v1/auth/access-revoke", second.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/auth/profile", second.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// el primer access no fue tocado
	rec = e.do(t, http.MethodGet, "/v1/auth/profile", first.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSignup_Duplicado409(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "alice", "pw1")

	rec := e.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"login": "alice", "password": "pw2",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	var out HTTPError
	decode(t, rec, &out)
	require.Equal(t, "conflict", out.Code)
	require.Contains(t, out.Detail, "login")
}

func TestLogin_CredencialesMalas403(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "alice", "pw1")

	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"login": "alice", "password": "mala",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProfile_SinToken401(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/v1/auth/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestRefresh_EmiteAccessNuevo(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "alice", "pw1")
	pair := e.login(t, "alice", "pw1")

	rec := e.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var out tokenResponse
	decode(t, rec, &out)
	require.NotEmpty(t, out.AccessToken)

	prof := e.do(t, http.MethodGet, "/v1/auth/profile", out.AccessToken, nil)
	require.Equal(t, http.StatusOK, prof.Code)
}

func TestRefresh_ConAccessToken401(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "alice", "pw1")
	pair := e.login(t, "alice", "pw1")

	rec := e.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.AccessToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRevoke_CierraElRefresh(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "alice", "pw1")
	pair := e.login(t, "alice", "pw1")

	rec := e.do(t, http.MethodDelete, "/v1/auth/refresh-revoke", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_CierraTodasLasSesiones(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "alice", "pw1")
	first := e.login(t, "alice", "pw1")
	second := e.login(t, "alice", "pw1")

	rec := e.do(t, http.MethodPost, "/v1/auth/logout", second.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		RevokedJTIs []string `json:"revoked_jtis"`
	}
	decode(t, rec, &out)
	require.Len(t, out.RevokedJTIs, 3)

	for _, refresh := range []string{first.RefreshToken, second.RefreshToken} {
		rec = e.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
			"refresh_token": refresh,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestPatchProfile(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "alice", "pw1")
	pair := e.login(t, "alice", "pw1")

	rec := e.do(t, http.MethodPatch, "/v1/auth/profile", pair.AccessToken, map[string]string{
		"login": "alice_upd",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Profile       profileResponse `json:"profile"`
		ChangedFields []string        `json:"changed_fields"`
	}
	decode(t, rec, &out)
	require.Equal(t, []string{"login"}, out.ChangedFields)
	require.Equal(t, "alice_upd", out.Profile.Login)

	// el login viejo deja de servir, el nuevo anda
	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"login": "alice", "password": "pw1",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	e.login(t, "alice_upd", "pw1")
}

func (e *env) superuserToken(t *testing.T) string {
	t.Helper()
	u := &core.User{Login: "root", Password: "$argon2id$...", Superuser: true}
	require.NoError(t, e.repo.InsertUser(context.Background(), u))
	raw, _, err := e.eng.IssueAccess(u.ID, nil, true)
	require.NoError(t, err)
	return raw
}

func TestRoles_RequierePermiso(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "alice", "pw1")
	pair := e.login(t, "alice", "pw1")

	// sin token: 401
	rec := e.do(t, http.MethodGet, "/v1/roles/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// usuario común sin role-management: 403
	rec = e.do(t, http.MethodGet, "/v1/roles/", pair.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// superuser: pasa
	root := e.superuserToken(t)
	rec = e.do(t, http.MethodGet, "/v1/roles/", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRoles_CRUD(t *testing.T) {
	e := newEnv(t)
	root := e.superuserToken(t)

	rec := e.do(t, http.MethodPost, "/v1/roles/", root, map[string]string{"name": "editores"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var role roleResponse
	decode(t, rec, &role)
	require.NotEmpty(t, role.ID)

	// duplicado
	rec = e.do(t, http.MethodPost, "/v1/roles/", root, map[string]string{"name": "editores"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPatch, "/v1/roles/"+role.ID+"/", root, map[string]string{"name": "redactores"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodDelete, "/v1/roles/"+role.ID+"/", root, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/roles/"+role.ID+"/", root, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAristaRolePermission_PorHTTP(t *testing.T) {
	e := newEnv(t)
	root := e.superuserToken(t)

	rec := e.do(t, http.MethodPost, "/v1/roles/", root, map[string]string{"name": "premium"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var role roleResponse
	decode(t, rec, &role)

	rec = e.do(t, http.MethodGet, "/v1/permissions", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var perms struct {
		Permissions []permissionResponse `json:"permissions"`
	}
	decode(t, rec, &perms)
	require.Len(t, perms.Permissions, len(core.PermissionCatalog))

	permID := ""
	for _, p := range perms.Permissions {
		if p.Name == core.PermPremiumSubscriber {
			permID = p.ID
		}
	}
	require.NotEmpty(t, permID)

	rec = e.do(t, http.MethodPost, "/v1/roles/"+role.ID+"/permissions/"+permID, root, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// arista duplicada: 409
	rec = e.do(t, http.MethodPost, "/v1/roles/"+role.ID+"/permissions/"+permID, root, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// permiso inexistente: 404
	rec = e.do(t, http.MethodPost, "/v1/roles/"+role.ID+"/permissions/no-existe", root, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/v1/roles/"+role.ID+"/permissions/"+permID, root, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUserRole_AsignarCierraSesiones(t *testing.T) {
	e := newEnv(t)
	root := e.superuserToken(t)

	userID := e.signup(t, "alice", "pw1")
	pair := e.login(t, "alice", "pw1")

	rec := e.do(t, http.MethodPost, "/v1/roles/", root, map[string]string{"name": "editores"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var role roleResponse
	decode(t, rec, &role)

	rec = e.do(t, http.MethodPost, "/v1/users/"+userID+"/roles/"+role.ID+"/", root, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// el refresh emitido antes del cambio quedó revocado
	rec = e.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// y el login nuevo ya trae el rol embebido
	fresh := e.login(t, "alice", "pw1")
	claims, err := e.eng.Verify(context.Background(), fresh.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	require.Equal(t, []string{role.ID}, claims.Roles)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
