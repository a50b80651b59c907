package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/store/core"
)

func (s *Store) InsertSession(ctx context.Context, sess *core.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	const q = `
INSERT INTO sessions (id, user_id, refresh_token, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING created_at`
	err := s.pool.QueryRow(ctx, q,
		sess.ID, sess.UserID, sess.RefreshToken, sess.ExpiresAt,
	).Scan(&sess.CreatedAt)
	return mapErr(err)
}

func (s *Store) QuerySessions(ctx context.Context, userID string, onlyActive bool, limit, offset int) ([]core.Session, error) {
	q := `
SELECT id, user_id, refresh_token, expires_at, created_at
FROM sessions
WHERE user_id = $1`
	if onlyActive {
		q += ` AND expires_at > now()`
	}
	q += `
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Session
	for rows.Next() {
		var sess core.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.RefreshToken,
			&sess.ExpiresAt, &sess.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *Store) CountSessions(ctx context.Context, userID string, onlyActive bool) (int, error) {
	q := `SELECT count(*) FROM sessions WHERE user_id = $1`
	if onlyActive {
		q += ` AND expires_at > now()`
	}
	var n int
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
