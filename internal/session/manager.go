// Package session administra el historial de sesiones: una fila por
// login con el refresh token emitido. Las filas nunca se borran; una
// sesión "muere" por expiración o porque su refresh quedó en el denylist.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/token"
)

// Manager crea y lista sesiones, y ejecuta el logout global.
type Manager struct {
	store  core.Repository
	tokens *token.Engine
}

func NewManager(store core.Repository, tokens *token.Engine) *Manager {
	return &Manager{store: store, tokens: tokens}
}

// Create registra la sesión de un login/refresh nuevo. ExpiresAt es el
// exp del refresh: mientras no pase, la sesión cuenta como activa.
func (m *Manager) Create(ctx context.Context, userID, refreshRaw string, refresh *token.Claims) (*core.Session, error) {
	s := &core.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		RefreshToken: refreshRaw,
		ExpiresAt:    refresh.ExpiresAt.Time,
	}
	if err := m.store.InsertSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session: insert: %w", err)
	}
	return s, nil
}

// ListActive devuelve la página pedida de sesiones activas del usuario
// (más recientes primero) y el total activo. page/size se normalizan
// con los límites del repositorio.
func (m *Manager) ListActive(ctx context.Context, userID string, page, size int) ([]core.Session, int, error) {
	page, size = core.ClampSessionPage(page, size)
	offset := (page - 1) * size

	items, err := m.store.QuerySessions(ctx, userID, true, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("session: query: %w", err)
	}
	total, err := m.store.CountSessions(ctx, userID, true)
	if err != nil {
		return nil, 0, fmt.Errorf("session: count: %w", err)
	}
	return items, total, nil
}

// LogoutAll revoca el refresh de cada sesión activa del usuario y, si
// se pasa, el access token con el que se hizo el llamado. Devuelve los
// jtis revocados en esta pasada (los que ya estaban en el denylist no
// se repiten; el access del caller se fuerza siempre).
func (m *Manager) LogoutAll(ctx context.Context, userID string, current *token.Claims) ([]string, error) {
	lg := logger.Named("session")
	now := time.Now()

	revoked := make([]string, 0, 8)
	offset := 0
	for {
		batch, err := m.store.QuerySessions(ctx, userID, true, core.SessionPageSizeMax, offset)
		if err != nil {
			return nil, fmt.Errorf("session: query: %w", err)
		}
		for i := range batch {
			s := &batch[i]
			if !core.SessionIsActive(s, now) {
				continue
			}
			claims, err := m.tokens.ParseLenient(s.RefreshToken)
			if err != nil {
				// token guardado ilegible (clave rotada, fila corrupta):
				// no hay jti que revocar
				lg.Warn("refresh de sesión ilegible, se omite",
					logger.SessionID(s.ID), logger.Err(err))
				continue
			}
			jti, err := m.tokens.Revoke(ctx, claims, false)
			if err != nil {
				return nil, err
			}
			if jti != "" {
				revoked = append(revoked, jti)
			}
		}
		if len(batch) < core.SessionPageSizeMax {
			break
		}
		offset += core.SessionPageSizeMax
	}

	if current != nil {
		jti, err := m.tokens.Revoke(ctx, current, true)
		if err != nil {
			return nil, err
		}
		if jti != "" {
			revoked = append(revoked, jti)
		}
	}
	return revoked, nil
}
