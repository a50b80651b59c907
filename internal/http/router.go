package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/rbac"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/token"
)

// Deps agrupa todo lo que el router necesita para armar las rutas.
type Deps struct {
	Auth   *AuthHandler
	RBAC   *RBACHandler
	Tokens *token.Engine
	Eval   *rbac.Evaluator
	Store  core.Repository
	Cache  cache.Client

	CORSAllowedOrigins []string
}

// NewRouter arma el árbol de rutas completo.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(WithRequestID)
	r.Use(WithRecover)
	r.Use(WithMetrics)
	r.Use(WithLogging)
	if len(d.CORSAllowedOrigins) > 0 {
		r.Use(WithCORS(d.CORSAllowedOrigins))
	}

	requireAuth := RequireAuth(d.Tokens)
	roleAdmin := RequirePermission(d.Eval, core.PermRoleManagement)
	userAdmin := RequirePermission(d.Eval, core.PermUserManagement)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// públicos
			r.Post("/signup", d.Auth.Signup)
			r.Post("/login", d.Auth.Login)

			// la credencial es el propio token presentado
			r.Post("/refresh", d.Auth.Refresh)
			r.Delete("/refresh-revoke", d.Auth.RevokeRefresh)
			r.Delete("/access-revoke", d.Auth.RevokeAccess)

			// requieren access vigente
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", d.Auth.Logout)
				r.Get("/profile", d.Auth.GetProfile)
				r.Patch("/profile", d.Auth.PatchProfile)
				r.Get("/history", d.Auth.History)
			})
		})

		r.Route("/roles", func(r chi.Router) {
			r.Use(roleAdmin)
			r.Post("/", d.RBAC.CreateRole)
			r.Get("/", d.RBAC.ListRoles)
			r.Route("/{roleID}", func(r chi.Router) {
				r.Get("/", d.RBAC.GetRole)
				r.Patch("/", d.RBAC.PatchRole)
				r.Delete("/", d.RBAC.DeleteRole)
				r.Get("/permissions", d.RBAC.ListRolePermissions)
				r.Post("/permissions/{permissionID}", d.RBAC.AssignPermission)
				r.Delete("/permissions/{permissionID}", d.RBAC.RemovePermission)
			})
		})

		r.With(roleAdmin).Get("/permissions", d.RBAC.ListPermissions)

		r.Route("/users/{userID}/roles/{roleID}", func(r chi.Router) {
			r.Use(userAdmin)
			r.Post("/", d.RBAC.AssignUserRole)
			r.Delete("/", d.RBAC.RemoveUserRole)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := d.Store.Ping(req.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "storage unavailable"})
			return
		}
		if err := d.Cache.Ping(req.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "cache unavailable"})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
