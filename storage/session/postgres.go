package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
)

type sessionRow struct {
	ID        string      `db:"id"`
	Data      []byte      `db:"data"`
	UserID    null.String `db:"user_id"`
	ExpiresAt time.Time   `db:"expires_at"`
}

// PostgresBackend keeps sessions in the web_sessions table.
type PostgresBackend struct {
	db *sqlx.DB
}

var _ Backend = (*PostgresBackend)(nil)

func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Get(ctx context.Context, id string) (session.State, bool, error) {
	var row sessionRow
	err := b.db.GetContext(ctx, &row,
		`SELECT id, data, user_id, expires_at FROM web_sessions WHERE id = $1 AND expires_at > $2`,
		id, core.NowFunc().UTC())
	if err == sql.ErrNoRows {
		return session.State{}, false, nil
	} else if err != nil {
		return session.State{}, false, errors.Wrap(err, "selecting session")
	}

	var st session.State
	if err = json.Unmarshal(row.Data, &st); err != nil {
		return session.State{}, false, errors.Wrap(err, "decoding session")
	}
	return st, true, nil
}

func (b *PostgresBackend) Put(ctx context.Context, id string, st session.State, expiresAt time.Time) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	row := sessionRow{ID: id, Data: data, ExpiresAt: expiresAt.UTC()}
	if st.User != nil {
		row.UserID = null.StringFrom(st.User.ID)
	}
	_, err = b.db.NamedExecContext(ctx, `
		INSERT INTO web_sessions (id, data, user_id, expires_at, created_at, updated_at)
		VALUES (:id, :data, :user_id, :expires_at, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		row)
	return errors.Wrap(err, "upserting session")
}

func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM web_sessions WHERE id = $1`, id)
	return errors.Wrap(err, "deleting session")
}

func (b *PostgresBackend) Purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM web_sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purging sessions")
	}
	return res.RowsAffected()
}
