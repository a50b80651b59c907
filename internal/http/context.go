package http

import (
	"context"

	"github.com/dropDatabas3/janus/internal/token"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyClaims
	ctxKeyBearer
)

func withRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID devuelve el request id inyectado por el middleware, o "".
func GetRequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ctxKeyRequestID).(string)
	return rid
}

func withClaims(ctx context.Context, c *token.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// ClaimsFrom devuelve las claims del access token validado por
// RequireAuth/RequirePermission, o nil si la ruta no pasó por ellos.
func ClaimsFrom(ctx context.Context) *token.Claims {
	c, _ := ctx.Value(ctxKeyClaims).(*token.Claims)
	return c
}

func withBearer(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, ctxKeyBearer, raw)
}

// BearerFrom devuelve el token crudo presentado en Authorization.
// Lo usan los handlers que revocan el propio token del caller.
func BearerFrom(ctx context.Context) string {
	raw, _ := ctx.Value(ctxKeyBearer).(string)
	return raw
}
