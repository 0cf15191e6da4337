package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const createTableQuery = `
CREATE TABLE IF NOT EXISTS ui_state (
	namespace  VARCHAR(64)  NOT NULL,
	key        VARCHAR(128) NOT NULL,
	version    INTEGER      NOT NULL,
	data       JSONB        NOT NULL,
	updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, key)
);
`

type postgresStore struct{ db *sql.DB }

// NewPostgres wraps an open database handle. Call InitSchema once at startup.
func NewPostgres(db *sql.DB) Store { return &postgresStore{db: db} }

// OpenPostgres opens and pings the database and makes sure ui_state exists.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database connection established")
	return db, nil
}

func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *postgresStore) Load(ctx context.Context, namespace, key string) (Record, error) {
	var rec Record
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT version, data FROM ui_state WHERE namespace=$1 AND key=$2`,
		namespace, key).Scan(&rec.Version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.Data = data
	return rec, nil
}

func (s *postgresStore) Save(ctx context.Context, namespace, key string, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ui_state (namespace, key, version, data)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (namespace, key)
		DO UPDATE SET version=EXCLUDED.version, data=EXCLUDED.data, updated_at=CURRENT_TIMESTAMP`,
		namespace, key, rec.Version, []byte(rec.Data))
	if err != nil {
		return fmt.Errorf("upsert ui_state: %w", err)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ui_state WHERE namespace=$1 AND key=$2`, namespace, key)
	return err
}
