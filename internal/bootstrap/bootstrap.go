// Package bootstrap corre las tareas de arranque que necesitan estado
// en storage: sembrar el catálogo de permisos y, para el CLI de admin,
// crear cuentas superuser.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/security/password"
	"github.com/dropDatabas3/janus/internal/store/core"
)

// SeedPermissions siembra el catálogo de permisos de forma idempotente.
// Se corre en cada arranque; las filas ya existentes no se tocan.
func SeedPermissions(ctx context.Context, store core.Repository) error {
	if err := store.SeedPermissions(ctx, core.PermissionCatalog); err != nil {
		return fmt.Errorf("bootstrap: sembrar permisos: %w", err)
	}
	logger.Named("bootstrap").Info("catálogo de permisos sembrado",
		logger.Count(len(core.PermissionCatalog)))
	return nil
}

// CreateSuperuser da de alta una cuenta con el flag superuser. Si el
// login ya existe devuelve Conflict, no pisa la cuenta.
func CreateSuperuser(ctx context.Context, store core.Repository, login, plain string, email *string) (*core.User, error) {
	if login == "" {
		return nil, errors.New("bootstrap: login vacío")
	}
	if plain == "" {
		return nil, errors.New("bootstrap: password vacía")
	}
	phc, err := password.Hash(password.Default, plain)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: hash password: %w", err)
	}
	u := &core.User{
		Login:     login,
		Password:  phc,
		Email:     email,
		Superuser: true,
	}
	if err := store.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	logger.Named("bootstrap").Info("superuser creado", logger.UserID(u.ID))
	return u, nil
}
