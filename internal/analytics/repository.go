package analytics

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists flushed events.
type Repository struct {
	db *pgxpool.Pool
}

var _ Sink = (*Repository)(nil)

// NewRepository creates a new analytics repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// WriteEvents inserts a batch of events in a single round trip.
func (r *Repository) WriteEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO engine_events (id, event_type, subject_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	for _, event := range events {
		payloadJSON, err := json.Marshal(event.Payload)
		if err != nil {
			payloadJSON = []byte("{}")
		}
		batch.Queue(query, event.ID, event.Type, event.SubjectID, payloadJSON, event.OccurredAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}
