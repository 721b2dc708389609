package telemetry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOutput lands events in a single table, one row per event with the
// payload kept as jsonb for ad hoc querying.
type PostgresOutput struct {
	db *pgxpool.Pool
}

func NewPostgresOutput(ctx context.Context, dsn string) (*PostgresOutput, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	_, err = db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS driver_events (
			id BIGSERIAL PRIMARY KEY,
			topic TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating driver_events table: %w", err)
	}
	return &PostgresOutput{db: db}, nil
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	_, err := p.db.Exec(context.Background(),
		`INSERT INTO driver_events (topic, payload) VALUES ($1, $2)`, topic, msg)
	if err != nil {
		return fmt.Errorf("failed to insert into driver_events: %w", err)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	p.db.Close()
	return nil
}
