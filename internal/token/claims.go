package token

import (
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Type discrimina access de refresh; un token de un tipo nunca se acepta
// donde se espera el otro.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims es la estructura tipada que viaja firmada en cada token.
// Reemplaza los diccionarios dinámicos: se valida al decodificar.
// Roles y Superuser son un snapshot del momento de emisión; los permisos
// derivados de los roles se resuelven en vivo en cada check, pero la
// membresía de roles embebida solo cambia re-emitiendo el token.
type Claims struct {
	jwtv5.RegisteredClaims
	Type      Type     `json:"typ"`
	Roles     []string `json:"roles,omitempty"`
	Superuser bool     `json:"superuser,omitempty"`
}

// JTI devuelve el identificador único del token (clave del denylist).
func (c *Claims) JTI() string { return c.ID }

// UserID devuelve el subject.
func (c *Claims) UserID() string { return c.Subject }

// Errores de verificación. Todos equivalen a Unauthenticated para el
// caller HTTP; se distinguen para logging y tests.
var (
	ErrTokenInvalid   = errors.New("token: invalid")
	ErrTokenExpired   = errors.New("token: expired")
	ErrWrongTokenType = errors.New("token: wrong type")
	ErrTokenRevoked   = errors.New("token: revoked")

	// ErrDenylistUnavailable: no se pudo consultar el denylist. Se trata
	// como revocado (fail closed), nunca se deja pasar el request.
	ErrDenylistUnavailable = errors.New("token: denylist unavailable")
)

// IsUnauthenticated agrupa todos los errores que deben responder 401.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrWrongTokenType) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrDenylistUnavailable)
}
