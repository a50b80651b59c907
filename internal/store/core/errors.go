package core

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ConflictError indica una violación de unicidad con el campo ofensor
// (login, email, name, role_permission, user_role). errors.Is(err,
// ErrConflict) da true, así los callers que no distinguen campo no
// necesitan el tipo concreto.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "conflict"
	}
	return "conflict: " + e.Field
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ConflictField extrae el campo ofensor de un error de unicidad, si lo hay.
func ConflictField(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}
