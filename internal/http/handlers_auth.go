package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dropDatabas3/janus/internal/auth"
	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/core"
)

// AuthHandler atiende /v1/auth/*.
type AuthHandler struct {
	svc      *auth.Service
	profiles *profile.Service
	sessions *session.Manager
}

func NewAuthHandler(svc *auth.Service, profiles *profile.Service, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{svc: svc, profiles: profiles, sessions: sessions}
}

type signupRequest struct {
	Login     string  `json:"login"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
}

// Signup maneja POST /v1/auth/signup → 201/409.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := ReadJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	u, err := h.svc.Signup(r.Context(), auth.SignupInput{
		Login:     req.Login,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"id":    u.ID,
		"login": u.Login,
	})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	SessionID    string `json:"session_id,omitempty"`
}

// Login maneja POST /v1/auth/login → 200/403.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := ReadJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	pair, err := h.svc.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
		SessionID:    pair.SessionID,
	})
}

// Logout maneja POST /v1/auth/logout: cierra todas las sesiones del
// portador. El access del caller es el bearer del request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	revoked, err := h.svc.Logout(r.Context(), BearerFrom(r.Context()))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"revoked_jtis": revoked})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshTokenFrom saca el refresh del body o, si no vino, del bearer.
func refreshTokenFrom(w http.ResponseWriter, r *http.Request) (string, error) {
	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := ReadJSON(w, r, &req); err != nil {
			return "", err
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	if raw := bearerToken(r); raw != "" {
		return raw, nil
	}
	return "", ErrBadRequest.WithDetail("missing refresh token")
}

// Refresh maneja POST /v1/auth/refresh: emite un access nuevo. El
// refresh token es la credencial, no hace falta un access vigente.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw, err := refreshTokenFrom(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}
	accessRaw, expiresIn, err := h.svc.Refresh(r.Context(), raw)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessRaw,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}

// RevokeRefresh maneja DELETE /v1/auth/refresh-revoke.
func (h *AuthHandler) RevokeRefresh(w http.ResponseWriter, r *http.Request) {
	raw, err := refreshTokenFrom(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}
	jti, err := h.svc.RevokeRefresh(r.Context(), raw)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"revoked_jti": jti})
}

// RevokeAccess maneja DELETE /v1/auth/access-revoke: revoca el access
// con el que se hizo el request.
func (h *AuthHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		WriteError(w, ErrUnauthorized.WithDetail("missing bearer token"))
		return
	}
	jti, err := h.svc.RevokeAccess(r.Context(), raw)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"revoked_jti": jti})
}

type profileResponse struct {
	ID        string   `json:"id"`
	Login     string   `json:"login"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     *string  `json:"email"`
	Superuser bool     `json:"superuser"`
	Roles     []string `json:"roles"`
}

func toProfileResponse(v *profile.View) profileResponse {
	return profileResponse{
		ID:        v.ID,
		Login:     v.Login,
		FirstName: v.FirstName,
		LastName:  v.LastName,
		Email:     v.Email,
		Superuser: v.Superuser,
		Roles:     v.Roles,
	}
}

// GetProfile maneja GET /v1/auth/profile.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	v, err := h.profiles.Get(r.Context(), claims.Subject)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProfileResponse(v))
}

type profilePatchRequest struct {
	Login     *string `json:"login"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// PatchProfile maneja PATCH /v1/auth/profile: campo ausente = sin
// cambios, presente (aun vacío) = reemplazo. Devuelve qué cambió.
func (h *AuthHandler) PatchProfile(w http.ResponseWriter, r *http.Request) {
	var req profilePatchRequest
	if err := ReadJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	claims := ClaimsFrom(r.Context())
	v, changed, err := h.profiles.Apply(r.Context(), claims.Subject, profile.Update{
		Login:     req.Login,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"profile":        toProfileResponse(v),
		"changed_fields": changed,
	})
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// History maneja GET /v1/auth/history?page&pagesize: sesiones activas
// del portador. El refresh token guardado nunca se devuelve.
func (h *AuthHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pagesize"))
	page, size = core.ClampSessionPage(page, size)

	items, total, err := h.sessions.ListActive(r.Context(), claims.Subject, page, size)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, sessionResponse{
			ID:        s.ID,
			UserID:    s.UserID,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"sessions": out,
		"total":    total,
		"page":     page,
		"pagesize": size,
	})
}
