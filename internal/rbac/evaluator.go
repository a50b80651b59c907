// Package rbac decide autorización: dado un access token y un conjunto
// de permisos requeridos, resuelve si el caller puede pasar. También
// contiene el CRUD de roles y de las aristas role↔permission y
// user↔role.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/token"
)

// ErrForbidden: token válido pero sin el permiso requerido.
var ErrForbidden = errors.New("rbac: forbidden")

// Evaluator ejecuta check_access. El cierre de permisos se resuelve en
// vivo contra storage en cada llamada, sin cache: sacar una arista
// role↔permission corta el acceso de inmediato aunque el token siga
// llevando el rol.
type Evaluator struct {
	store  core.Repository
	tokens *token.Engine
}

func NewEvaluator(store core.Repository, tokens *token.Engine) *Evaluator {
	return &Evaluator{store: store, tokens: tokens}
}

// CheckAccess verifica el access token (firma, exp, denylist) y después
// evalúa permisos: superuser pasa siempre; el resto pasa si el cierre de
// permisos de sus roles interseca el conjunto requerido.
func (e *Evaluator) CheckAccess(ctx context.Context, raw string, required ...string) (*token.Claims, error) {
	claims, err := e.tokens.Verify(ctx, raw, token.TypeAccess)
	if err != nil {
		return nil, err
	}
	if claims.Superuser {
		return claims, nil
	}
	if len(claims.Roles) == 0 {
		return nil, ErrForbidden
	}
	held, err := e.store.QueryPermissionsForRoles(ctx, claims.Roles)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolver permisos: %w", err)
	}
	set := make(map[string]bool, len(held))
	for _, p := range held {
		set[p] = true
	}
	for _, want := range required {
		if set[want] {
			return claims, nil
		}
	}
	return nil, ErrForbidden
}
