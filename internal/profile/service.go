// Package profile expone la lectura y edición del perfil propio.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/janus/internal/security/password"
	"github.com/dropDatabas3/janus/internal/store/core"
)

// ErrInvalidInput: el patch no pasa validación básica.
var ErrInvalidInput = errors.New("profile: invalid input")

// Update es el patch parcial del perfil. Puntero nil = campo sin tocar;
// puntero presente = reemplazar, incluso con string vacío. Password es
// la excepción: vacío también significa "sin cambios" (nunca se acepta
// una password vacía).
type Update struct {
	Login     *string
	Password  *string
	FirstName *string
	LastName  *string
	Email     *string
}

// View es el perfil que se devuelve al caller: nunca incluye el hash.
type View struct {
	ID        string
	Login     string
	FirstName string
	LastName  string
	Email     *string
	Superuser bool
	Roles     []string
}

// Service lee y edita perfiles.
type Service struct {
	store  core.Repository
	hasher password.Params
}

func NewService(store core.Repository) *Service {
	return &Service{store: store, hasher: password.Default}
}

// Get arma la vista del perfil del subject del token. Si la cuenta fue
// borrada después de emitido el token, NotFound.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.store.GetUserRoleIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: roles: %w", err)
	}
	return &View{
		ID:        u.ID,
		Login:     u.Login,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Superuser: u.Superuser,
		Roles:     roles,
	}, nil
}

// Apply aplica el patch y devuelve la vista nueva junto con los campos
// que efectivamente cambiaron. La password nueva se compara contra el
// hash viejo: mandar la misma password no cuenta como cambio ni re-hashea.
func (s *Service) Apply(ctx context.Context, userID string, upd Update) (*View, []string, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	changed := make([]string, 0, 4)
	if upd.Login != nil {
		login := strings.TrimSpace(*upd.Login)
		if login == "" {
			return nil, nil, fmt.Errorf("%w: login vacío", ErrInvalidInput)
		}
		if login != u.Login {
			u.Login = login
			changed = append(changed, "login")
		}
	}
	if upd.FirstName != nil && *upd.FirstName != u.FirstName {
		u.FirstName = *upd.FirstName
		changed = append(changed, "first_name")
	}
	if upd.LastName != nil && *upd.LastName != u.LastName {
		u.LastName = *upd.LastName
		changed = append(changed, "last_name")
	}
	if upd.Email != nil {
		if !equalPtr(upd.Email, u.Email) {
			u.Email = upd.Email
			changed = append(changed, "email")
		}
	}
	if upd.Password != nil && *upd.Password != "" {
		if !password.Verify(*upd.Password, u.Password) {
			phc, err := password.Hash(s.hasher, *upd.Password)
			if err != nil {
				return nil, nil, fmt.Errorf("profile: hash password: %w", err)
			}
			u.Password = phc
			changed = append(changed, "password")
		}
	}

	if len(changed) > 0 {
		if err := s.store.UpdateUser(ctx, u); err != nil {
			return nil, nil, err
		}
	}

	view, err := s.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return view, changed, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
