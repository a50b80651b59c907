package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/janus/internal/store/core"
)

const userColumns = `id, login, password, first_name, last_name, email, superuser, created_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Login, &u.Password, &u.FirstName, &u.LastName,
		&u.Email, &u.Superuser, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (*core.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE login = $1`
	return scanUser(s.pool.QueryRow(ctx, q, strings.TrimSpace(login)))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) InsertUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	const q = `
INSERT INTO users (id, login, password, first_name, last_name, email, superuser)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`
	err := s.pool.QueryRow(ctx, q,
		u.ID, u.Login, u.Password, u.FirstName, u.LastName, u.Email, u.Superuser,
	).Scan(&u.CreatedAt)
	return mapErr(err)
}

func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	const q = `
UPDATE users
SET login = $2, password = $3, first_name = $4, last_name = $5, email = $6
WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q,
		u.ID, u.Login, u.Password, u.FirstName, u.LastName, u.Email)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
