// Package auth implementa el flujo de credenciales: signup, login,
// refresh, revocación y logout global.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/observability/metrics"
	"github.com/dropDatabas3/janus/internal/security/password"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/token"
)

var (
	// ErrInvalidCredentials cubre tanto login inexistente como password
	// incorrecta: al caller no se le dice cuál de los dos falló.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidInput: el request no pasa validación básica.
	ErrInvalidInput = errors.New("auth: invalid input")
)

// SignupInput son los datos de alta de cuenta.
type SignupInput struct {
	Login     string
	Password  string
	FirstName string
	LastName  string
	Email     *string
}

// TokenPair es la respuesta de login: ambos tokens más la sesión creada.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresIn    int64 // segundos de vida del access
}

// Service orquesta Credential Store + Token Engine + Session Manager.
type Service struct {
	store    core.Repository
	tokens   *token.Engine
	sessions *session.Manager
	hasher   password.Params
}

func NewService(store core.Repository, tokens *token.Engine, sessions *session.Manager) *Service {
	return &Service{store: store, tokens: tokens, sessions: sessions, hasher: password.Default}
}

// Signup crea la cuenta con la password hasheada. Login/email duplicado
// vuelve como Conflict con el campo ofensor.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*core.User, error) {
	in.Login = strings.TrimSpace(in.Login)
	if in.Login == "" {
		return nil, fmt.Errorf("%w: login vacío", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password vacía", ErrInvalidInput)
	}
	phc, err := password.Hash(s.hasher, in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	u := &core.User{
		Login:     in.Login,
		Password:  phc,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}
	if err := s.store.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	logger.Named("auth").Info("cuenta creada", logger.UserID(u.ID))
	return u, nil
}

// Login verifica credenciales, emite el par de tokens con el snapshot
// de roles actual y registra la sesión.
func (s *Service) Login(ctx context.Context, login, plain string) (*TokenPair, error) {
	u, err := s.store.FindUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			metrics.LoginsTotal.WithLabelValues("denied").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: buscar usuario: %w", err)
	}
	if !password.Verify(plain, u.Password) {
		metrics.LoginsTotal.WithLabelValues("denied").Inc()
		return nil, ErrInvalidCredentials
	}

	roles, err := s.store.GetUserRoleIDs(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: roles: %w", err)
	}

	accessRaw, _, err := s.tokens.IssueAccess(u.ID, roles, u.Superuser)
	if err != nil {
		return nil, err
	}
	refreshRaw, refreshClaims, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(ctx, u.ID, refreshRaw, refreshClaims)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	logger.Named("auth").Info("login",
		logger.UserID(u.ID), logger.SessionID(sess.ID))

	return &TokenPair{
		AccessToken:  accessRaw,
		RefreshToken: refreshRaw,
		SessionID:    sess.ID,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Refresh emite un access nuevo a partir de un refresh válido. Los
// roles y el flag superuser se releen de storage: el access nuevo lleva
// el estado actual, no el del login original.
func (s *Service) Refresh(ctx context.Context, refreshRaw string) (string, int64, error) {
	claims, err := s.tokens.Verify(ctx, refreshRaw, token.TypeRefresh)
	if err != nil {
		return "", 0, err
	}
	u, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// la cuenta ya no existe: el refresh no sirve
			return "", 0, token.ErrTokenInvalid
		}
		return "", 0, fmt.Errorf("auth: buscar usuario: %w", err)
	}
	roles, err := s.store.GetUserRoleIDs(ctx, u.ID)
	if err != nil {
		return "", 0, fmt.Errorf("auth: roles: %w", err)
	}
	accessRaw, _, err := s.tokens.IssueAccess(u.ID, roles, u.Superuser)
	if err != nil {
		return "", 0, err
	}
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	return accessRaw, int64(s.tokens.AccessTTL().Seconds()), nil
}

// RevokeAccess mete el jti del access presentado en el denylist.
func (s *Service) RevokeAccess(ctx context.Context, accessRaw string) (string, error) {
	claims, err := s.tokens.Verify(ctx, accessRaw, token.TypeAccess)
	if err != nil {
		return "", err
	}
	return s.revoke(ctx, claims)
}

// RevokeRefresh mete el jti del refresh presentado en el denylist.
func (s *Service) RevokeRefresh(ctx context.Context, refreshRaw string) (string, error) {
	claims, err := s.tokens.Verify(ctx, refreshRaw, token.TypeRefresh)
	if err != nil {
		return "", err
	}
	return s.revoke(ctx, claims)
}

func (s *Service) revoke(ctx context.Context, claims *token.Claims) (string, error) {
	jti, err := s.tokens.Revoke(ctx, claims, true)
	if err != nil {
		return "", err
	}
	if jti != "" {
		metrics.RevocationsTotal.Inc()
	}
	return jti, nil
}

// Logout cierra todas las sesiones del portador del access token.
func (s *Service) Logout(ctx context.Context, accessRaw string) ([]string, error) {
	claims, err := s.tokens.Verify(ctx, accessRaw, token.TypeAccess)
	if err != nil {
		return nil, err
	}
	revoked, err := s.sessions.LogoutAll(ctx, claims.Subject, claims)
	if err != nil {
		return nil, err
	}
	logger.Named("auth").Info("logout global",
		logger.UserID(claims.Subject), logger.Count(len(revoked)))
	return revoked, nil
}
