package token

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/janus/internal/cache"
)

func testSeed(t *testing.T) string {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(seed)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(seed)
}

func newTestEngine(t *testing.T, accessTTL, refreshTTL time.Duration) *Engine {
	t.Helper()
	e, err := NewEngine(Config{
		Issuer:      "janus-test",
		SigningSeed: testSeed(t),
		AccessTTL:   accessTTL,
		RefreshTTL:  refreshTTL,
	}, cache.NewMemory(""))
	require.NoError(t, err)
	return e
}

func TestNewEngine_SeedInvalida(t *testing.T) {
	_, err := NewEngine(Config{Issuer: "x", SigningSeed: "no-es-base64!!"}, cache.NewMemory(""))
	require.Error(t, err)

	// base64 válido pero largo incorrecto
	short := base64.StdEncoding.EncodeToString([]byte("corta"))
	_, err = NewEngine(Config{Issuer: "x", SigningSeed: short}, cache.NewMemory(""))
	require.Error(t, err)
}

func TestIssueAndVerify_Access(t *testing.T) {
	e := newTestEngine(t, 30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	raw, issued, err := e.IssueAccess("user-1", []string{"r1", "r2"}, true)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	got, err := e.Verify(ctx, raw, TypeAccess)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, TypeAccess, got.Type)
	require.Equal(t, []string{"r1", "r2"}, got.Roles)
	require.True(t, got.Superuser)
	require.Equal(t, issued.ID, got.ID)
}

func TestVerify_TipoIncorrecto(t *testing.T) {
	e := newTestEngine(t, 30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	access, _, err := e.IssueAccess("user-1", nil, false)
	require.NoError(t, err)
	refresh, _, err := e.IssueRefresh("user-1")
	require.NoError(t, err)

	_, err = e.Verify(ctx, access, TypeRefresh)
	require.ErrorIs(t, err, ErrWrongTokenType)
	_, err = e.Verify(ctx, refresh, TypeAccess)
	require.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerify_Expirado(t *testing.T) {
	// TTL negativo más allá del leeway: el token nace vencido
	e := newTestEngine(t, -2*time.Minute, 24*time.Hour)
	ctx := context.Background()

	raw, _, err := e.IssueAccess("user-1", nil, false)
	require.NoError(t, err)

	_, err = e.Verify(ctx, raw, TypeAccess)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.True(t, IsUnauthenticated(err))
}

func TestVerify_Basura(t *testing.T) {
	e := newTestEngine(t, 30*time.Minute, 24*time.Hour)
	_, err := e.Verify(context.Background(), "ni.siquiera.jwt", TypeAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_FirmaDeOtraClave(t *testing.T) {
	a := newTestEngine(t, 30*time.Minute, 24*time.Hour)
	b := newTestEngine(t, 30*time.Minute, 24*time.Hour)

	raw, _, err := a.IssueAccess("user-1", nil, false)
	require.NoError(t, err)

	_, err = b.Verify(context.Background(), raw, TypeAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevoke_LuegoVerifyFalla(t *testing.T) {
	e := newTestEngine(t, 30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	raw, claims, err := e.IssueAccess("user-1", nil, false)
	require.NoError(t, err)

	jti, err := e.Revoke(ctx, claims, false)
	require.NoError(t, err)
	require.Equal(t, claims.ID, jti)

	_, err = e.Verify(ctx, raw, TypeAccess)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRevoke_IdempotenteSinForce(t *testing.T) {
	e := newTestEngine(t, 30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	_, claims, err := e.IssueAccess("user-1", nil, false)
	require.NoError(t, err)

	jti, err := e.Revoke(ctx, claims, false)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	// segunda pasada: ya estaba, no cuenta como revocación nueva
	jti, err = e.Revoke(ctx, claims, false)
	require.NoError(t, err)
	require.Empty(t, jti)

	// con force sí se reescribe y devuelve el jti
	jti, err = e.Revoke(ctx, claims, true)
	require.NoError(t, err)
	require.Equal(t, claims.ID, jti)
}

func TestRevoke_TokenYaVencidoNoEscribe(t *testing.T) {
	e := newTestEngine(t, -2*time.Minute, 24*time.Hour)
	ctx := context.Background()

	_, claims, err := e.IssueAccess("user-1", nil, false)
	require.NoError(t, err)

	jti, err := e.Revoke(ctx, claims, true)
	require.NoError(t, err)
	require.Empty(t, jti)
}

func TestParseLenient_AceptaVencido(t *testing.T) {
	e := newTestEngine(t, 30*time.Minute, -2*time.Minute)

	raw, issued, err := e.IssueRefresh("user-1")
	require.NoError(t, err)

	// Verify lo rechaza por exp, ParseLenient no
	_, err = e.Verify(context.Background(), raw, TypeRefresh)
	require.ErrorIs(t, err, ErrTokenExpired)

	got, err := e.ParseLenient(raw)
	require.NoError(t, err)
	require.Equal(t, issued.ID, got.ID)
	require.Equal(t, "user-1", got.Subject)
}

// failingCache simula un denylist caído.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, error) {
	return "", errors.New("boom")
}
func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("boom")
}
func (failingCache) Delete(context.Context, string) error        { return errors.New("boom") }
func (failingCache) Exists(context.Context, string) (bool, error) { return false, errors.New("boom") }
func (failingCache) Ping(context.Context) error                  { return errors.New("boom") }
func (failingCache) Close() error                                { return nil }

func TestVerify_DenylistCaidoEsFailClosed(t *testing.T) {
	e, err := NewEngine(Config{
		Issuer:      "janus-test",
		SigningSeed: testSeed(t),
		AccessTTL:   30 * time.Minute,
		RefreshTTL:  24 * time.Hour,
	}, failingCache{})
	require.NoError(t, err)

	raw, claims, err := e.IssueAccess("user-1", nil, false)
	require.NoError(t, err)

	_, err = e.Verify(context.Background(), raw, TypeAccess)
	require.ErrorIs(t, err, ErrDenylistUnavailable)
	require.True(t, IsUnauthenticated(err))

	// revocar tampoco puede reportar éxito si el denylist no responde
	_, err = e.Revoke(context.Background(), claims, true)
	require.ErrorIs(t, err, ErrDenylistUnavailable)
}
