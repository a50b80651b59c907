package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validSeed = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=" // 32 bytes

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeYAML(t, `
jwt:
  signing_seed: "`+validSeed+`"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.App.Env)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, 30*time.Minute, cfg.AccessTTL())
	require.Equal(t, 24*time.Hour, cfg.RefreshTTL())
	require.Equal(t, 10*time.Second, cfg.ReadTimeout())
}

func TestLoad_SinSeedFalla(t *testing.T) {
	path := writeYAML(t, `
server:
  addr: ":9000"
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "signing_seed")
}

func TestLoad_TTLInvalidoFalla(t *testing.T) {
	path := writeYAML(t, `
jwt:
  signing_seed: "`+validSeed+`"
  access_ttl: "treinta minutos"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("CACHE_KIND", "redis")
	t.Setenv("CACHE_REDIS_ADDR", "localhost:6379")

	path := writeYAML(t, `
jwt:
  signing_seed: "`+validSeed+`"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Addr)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
	require.Equal(t, "redis", cfg.Cache.Kind)
	require.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("JWT_SIGNING_SEED", validSeed)
	t.Setenv("SERVER_ADDR", ":7777")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":7777", cfg.Server.Addr)
	require.Equal(t, validSeed, cfg.JWT.SigningSeed)
}

func TestLoad_CacheKindInvalido(t *testing.T) {
	path := writeYAML(t, `
jwt:
  signing_seed: "`+validSeed+`"
cache:
  kind: "memcached"
`)
	_, err := Load(path)
	require.Error(t, err)
}
