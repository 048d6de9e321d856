package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// WebhookEventRepository is the durable idempotency ledger for gateway
// callbacks, keyed by the gateway's event id.
type WebhookEventRepository interface {
	// Record atomically claims an event id before any side effect runs. It
	// returns false when the id was already recorded, meaning the event is
	// a redelivery and must be ignored.
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	// Release frees a claimed event id again. Called when a delivery fails
	// before producing any durable side effect, so the gateway's retry is
	// processed instead of being ignored as a duplicate.
	Release(ctx context.Context, eventID string) error
}

type webhookEventRepository struct {
	DB *sql.DB
}

func NewWebhookEventRepo(db *sql.DB) WebhookEventRepository {
	return &webhookEventRepository{DB: db}
}

func (r *webhookEventRepository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	// ON CONFLICT DO NOTHING makes the claim atomic; two concurrent
	// deliveries of the same event resolve to exactly one inserted row.
	query := `
		INSERT INTO webhook_events (id, event_type, received_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.DB.ExecContext(dbCtx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get inserted rows: %w", err)
	}

	return inserted > 0, nil
}

func (r *webhookEventRepository) Release(ctx context.Context, eventID string) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM webhook_events WHERE id = $1
	`

	if _, err := r.DB.ExecContext(dbCtx, query, eventID); err != nil {
		return fmt.Errorf("failed to release webhook event: %w", err)
	}

	return nil
}
