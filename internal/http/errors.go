package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dropDatabas3/janus/internal/auth"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/rbac"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/token"
)

// Respuestas de error estándar.

var (
	ErrInvalidJSON         = &HTTPError{Code: "invalid_json", Message: "Invalid JSON format", Status: http.StatusBadRequest}
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrUnauthorized        = &HTTPError{Code: "unauthorized", Message: "Unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden           = &HTTPError{Code: "forbidden", Message: "Forbidden", Status: http.StatusForbidden}
	ErrNotFound            = &HTTPError{Code: "not_found", Message: "Not found", Status: http.StatusNotFound}
	ErrConflict            = &HTTPError{Code: "conflict", Message: "Already exists", Status: http.StatusConflict}
	ErrInternalServerError = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}
)

// HTTPError es el cuerpo JSON de todo error de la API.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail devuelve una copia del error con detalle específico.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	return &HTTPError{Code: e.Code, Message: e.Message, Detail: detail, Status: e.Status}
}

// WriteError serializa el error al response writer.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = ErrInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(httpErr)
}

// WriteDomainError traduce errores de los services a la taxonomía HTTP:
// Unauthenticated → 401, Forbidden/credenciales → 403, NotFound → 404,
// Conflict → 409 (con el campo ofensor), validación → 400, resto → 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case token.IsUnauthenticated(err):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
		WriteError(w, ErrUnauthorized)
	case errors.Is(err, rbac.ErrForbidden):
		WriteError(w, ErrForbidden)
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(w, ErrForbidden.WithDetail("invalid credentials"))
	case errors.Is(err, core.ErrConflict):
		if field := core.ConflictField(err); field != "" {
			WriteError(w, ErrConflict.WithDetail(field+" already exists"))
			return
		}
		WriteError(w, ErrConflict)
	case errors.Is(err, core.ErrNotFound):
		WriteError(w, ErrNotFound)
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, rbac.ErrInvalidInput),
		errors.Is(err, profile.ErrInvalidInput):
		WriteError(w, ErrBadRequest.WithDetail(err.Error()))
	default:
		logger.Named("http").Error("error no mapeado", logger.Err(err))
		WriteError(w, ErrInternalServerError)
	}
}

// WriteJSON serializa una respuesta exitosa.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const maxBodySize = 64 * 1024 // 64KB

// ReadJSON decodifica el body con límite de tamaño y campos estrictos.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	}()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return ErrInvalidJSON
	}
	return nil
}
