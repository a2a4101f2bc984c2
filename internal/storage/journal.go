package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Journaled event directions.
const (
	DirectionCommand = "command"
	DirectionState   = "state_update"
)

// BridgeEvent is one journaled application-bus publication.
type BridgeEvent struct {
	ID        uuid.UUID `json:"id"`
	Direction string    `json:"direction"`
	Item      string    `json:"item"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal records bridged events for diagnostics. It journals traffic
// only; bridge state is never persisted.
type Journal struct {
	db *PostgresClient
}

func NewJournal(db *PostgresClient) *Journal {
	return &Journal{db: db}
}

// EnsureSchema creates the journal table if it does not exist.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	_, err := j.db.Pool().Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bridge_events (
			id UUID PRIMARY KEY,
			direction TEXT NOT NULL,
			item TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// Record inserts one journal row.
func (j *Journal) Record(ctx context.Context, direction, item, value string) error {
	_, err := j.db.Pool().Exec(ctx,
		`INSERT INTO bridge_events (id, direction, item, value) VALUES ($1, $2, $3, $4)`,
		uuid.New(), direction, item, value)
	if err != nil {
		return fmt.Errorf("failed to record bridge event: %w", err)
	}
	return nil
}

// Recent returns the newest events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]BridgeEvent, error) {
	rows, err := j.db.Pool().Query(ctx,
		`SELECT id, direction, item, value, created_at
		 FROM bridge_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bridge events: %w", err)
	}
	defer rows.Close()

	var events []BridgeEvent
	for rows.Next() {
		var e BridgeEvent
		if err := rows.Scan(&e.ID, &e.Direction, &e.Item, &e.Value, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bridge event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
