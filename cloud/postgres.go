package cloud

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"homework-tracker/logger"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS user_data (
	user_id    TEXT PRIMARY KEY,
	content    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRemote keeps the per-user snapshots in the user_data table of the
// hosted Postgres database.
type PostgresRemote struct {
	pool *pgxpool.Pool
}

// NewPostgresRemote creates the connection pool and checks it with a ping.
func NewPostgresRemote(ctx context.Context, connectionString string) (*PostgresRemote, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "context cancelled")
	}

	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		logger.LogError("Failed to create connection pool", err)
		return nil, errors.Wrap(err, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.LogError("Failed to ping database", err)
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &PostgresRemote{pool: pool}, nil
}

// EnsureSchema creates the user_data table when missing.
func (r *PostgresRemote) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schemaSQL)
	return errors.Wrap(err, "creating user_data table")
}

func (r *PostgresRemote) Upsert(ctx context.Context, userID string, content Content) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return errors.Wrap(err, "encoding remote content")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO user_data (user_id, content, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (user_id) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
		userID, string(raw),
	)
	return errors.Wrap(err, "failed to upsert user data")
}

func (r *PostgresRemote) Fetch(ctx context.Context, userID string) (Content, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, "SELECT content::text FROM user_data WHERE user_id = $1", userID).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Content{}, ErrNoRemoteData
	case err != nil:
		return Content{}, errors.Wrap(err, "failed to get user data")
	}

	var content Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return Content{}, errors.Wrap(err, "decoding remote content")
	}
	return content, nil
}

// Close gracefully closes the connection pool.
func (r *PostgresRemote) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
