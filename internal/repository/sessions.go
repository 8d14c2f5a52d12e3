package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
)

const sessionColumns = `id, token, data, expires_at, created_at`

func scanSession(row pgx.Row) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.Token, &s.Data, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

type CreateSessionParams struct {
	Token     string
	Data      []byte
	ExpiresAt pgtype.Timestamptz
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (domain.Session, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO sessions (token, data, expires_at) VALUES ($1, $2, $3) RETURNING `+sessionColumns,
		arg.Token, arg.Data, arg.ExpiresAt)
	return scanSession(row)
}

func (q *Queries) GetSessionByToken(ctx context.Context, token string) (domain.Session, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1 AND expires_at > now()`,
		token)
	return scanSession(row)
}

type UpdateSessionDataParams struct {
	Token string
	Data  []byte
}

func (q *Queries) UpdateSessionData(ctx context.Context, arg UpdateSessionDataParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE sessions SET data = $2 WHERE token = $1`,
		arg.Token, arg.Data)
	return err
}

// DeleteExpiredSessions reaps sessions past their expiry. Run periodically by
// the server's background sweeper.
func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
