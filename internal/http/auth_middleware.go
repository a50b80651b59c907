package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/janus/internal/observability/metrics"
	"github.com/dropDatabas3/janus/internal/rbac"
	"github.com/dropDatabas3/janus/internal/token"
)

func bearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("Bearer "):])
}

// RequireAuth valida Authorization: Bearer <access token> (firma, exp,
// tipo, denylist) y deja las claims y el token crudo en el contexto.
func RequireAuth(tokens *token.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				WriteError(w, ErrUnauthorized.WithDetail("missing bearer token"))
				return
			}
			claims, err := tokens.Verify(r.Context(), raw, token.TypeAccess)
			if err != nil {
				WriteDomainError(w, err)
				return
			}
			ctx := withClaims(r.Context(), claims)
			ctx = withBearer(ctx, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission corre check_access completo: verificación del token
// más evaluación de permisos contra el cierre vivo de los roles.
func RequirePermission(eval *rbac.Evaluator, required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				WriteError(w, ErrUnauthorized.WithDetail("missing bearer token"))
				return
			}
			claims, err := eval.CheckAccess(r.Context(), raw, required...)
			if err != nil {
				if errors.Is(err, rbac.ErrForbidden) {
					metrics.AccessDeniedTotal.Inc()
				}
				WriteDomainError(w, err)
				return
			}
			ctx := withClaims(r.Context(), claims)
			ctx = withBearer(ctx, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
