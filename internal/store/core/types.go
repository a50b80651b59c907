package core

import "time"

// User es la cuenta de identidad. Password es siempre el hash PHC,
// nunca texto plano.
type User struct {
	ID        string
	Login     string
	Password  string
	FirstName string
	LastName  string
	Email     *string
	Superuser bool
	CreatedAt time.Time
}

// Role es un paquete de permisos con nombre único.
type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Permission pertenece al catálogo fijo sembrado en bootstrap;
// no se crea por API.
type Permission struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Session es una fila por login exitoso. No se borra al hacer logout:
// la validez del refresh la decide el denylist, no la tabla.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Catálogo de permisos sembrado al arrancar el servicio.
const (
	PermUserManagement    = "user-management"
	PermRoleManagement    = "role-management"
	PermGeneralSubscriber = "general-subscriber"
	PermPremiumSubscriber = "premium-subscriber"
)

// PermissionCatalog en orden de siembra.
var PermissionCatalog = []string{
	PermUserManagement,
	PermRoleManagement,
	PermGeneralSubscriber,
	PermPremiumSubscriber,
}
