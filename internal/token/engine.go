package token

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/cache"
)

// revokedMarker es el valor guardado en el denylist bajo el jti.
const revokedMarker = "revoked"

// leeway de reloj para exp/nbf al verificar.
const clockLeeway = 30 * time.Second

// Config del engine de tokens. SigningSeed es la semilla ed25519 en
// base64 estándar (32 bytes decodificados); sin ella el servicio no
// puede arrancar.
type Config struct {
	Issuer      string
	SigningSeed string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

// Engine emite, verifica y revoca tokens firmados con EdDSA.
// El denylist (cache) es parte del camino de verificación: si no se
// puede consultar, el token se rechaza (fail closed).
type Engine struct {
	iss        string
	priv       ed25519.PrivateKey
	pub        ed25519.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	denylist   cache.Client

	now func() time.Time // inyectable en tests
}

func NewEngine(cfg Config, denylist cache.Client) (*Engine, error) {
	seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.SigningSeed))
	if err != nil {
		return nil, fmt.Errorf("token: signing seed no es base64 válido: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("token: signing seed debe decodificar a %d bytes, llegaron %d", ed25519.SeedSize, len(seed))
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token: issuer vacío")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Engine{
		iss:        cfg.Issuer,
		priv:       priv,
		pub:        priv.Public().(ed25519.PublicKey),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		denylist:   denylist,
		now:        time.Now,
	}, nil
}

func (e *Engine) AccessTTL() time.Duration  { return e.accessTTL }
func (e *Engine) RefreshTTL() time.Duration { return e.refreshTTL }

// IssueAccess emite un access token con el snapshot de roles/superuser
// del momento de emisión.
func (e *Engine) IssueAccess(userID string, roleIDs []string, superuser bool) (string, *Claims, error) {
	return e.issue(TypeAccess, userID, roleIDs, superuser, e.accessTTL)
}

// IssueRefresh emite un refresh token. No lleva roles: al refrescar se
// vuelven a leer de storage.
func (e *Engine) IssueRefresh(userID string) (string, *Claims, error) {
	return e.issue(TypeRefresh, userID, nil, false, e.refreshTTL)
}

func (e *Engine) issue(typ Type, userID string, roleIDs []string, superuser bool, ttl time.Duration) (string, *Claims, error) {
	now := e.now().UTC()
	claims := &Claims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    e.iss,
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type:      typ,
		Roles:     roleIDs,
		Superuser: superuser,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(e.priv)
	if err != nil {
		return "", nil, fmt.Errorf("token: firmar: %w", err)
	}
	return signed, claims, nil
}

// Verify valida firma, iss, exp/nbf, tipo y denylist. El check del
// denylist no es opcional: un error de cache rechaza el token.
func (e *Engine) Verify(ctx context.Context, raw string, want Type) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwtv5.ParseWithClaims(raw, claims, e.keyfunc,
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(e.iss),
		jwtv5.WithLeeway(clockLeeway),
		jwtv5.WithTimeFunc(func() time.Time { return e.now() }),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}

	val, err := e.denylist.Get(ctx, claims.ID)
	switch {
	case err == nil && val == revokedMarker:
		return nil, ErrTokenRevoked
	case err == nil:
		// valor inesperado bajo el jti: lo tratamos como revocado
		return nil, ErrTokenRevoked
	case cache.IsNotFound(err):
		// no está en el denylist, sigue vivo
	default:
		return nil, fmt.Errorf("%w: %v", ErrDenylistUnavailable, err)
	}
	return claims, nil
}

// ParseLenient valida solo la firma: sirve para revocar tokens ya
// vencidos (logout-all recorre sesiones viejas) sin que exp los frene.
func (e *Engine) ParseLenient(raw string) (*Claims, error) {
	claims := &Claims{}
	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(raw, claims, e.keyfunc); err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Revoke marca el jti en el denylist con TTL igual a lo que le queda de
// vida al token; un token ya vencido no necesita entrada.
//
// Con force=false la revocación es idempotente: si el jti ya figura en
// el denylist no se reescribe y se devuelve jti vacío (el caller puede
// así contar solo revocaciones nuevas). Con force=true se escribe
// siempre.
func (e *Engine) Revoke(ctx context.Context, c *Claims, force bool) (string, error) {
	if c == nil || c.ID == "" || c.ExpiresAt == nil {
		return "", ErrTokenInvalid
	}
	ttl := c.ExpiresAt.Time.Sub(e.now())
	if ttl <= 0 {
		return "", nil
	}
	if !force {
		ok, err := e.denylist.Exists(ctx, c.ID)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDenylistUnavailable, err)
		}
		if ok {
			return "", nil
		}
	}
	if err := e.denylist.Set(ctx, c.ID, revokedMarker, ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDenylistUnavailable, err)
	}
	return c.ID, nil
}

func (e *Engine) keyfunc(t *jwtv5.Token) (any, error) {
	return e.pub, nil
}
