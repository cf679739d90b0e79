package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
)

// maxErrorLength bounds last_error so a chatty broker error cannot bloat rows.
const maxErrorLength = 500

// OutboxRepo stores video status changes until the relay has handed them to
// Kafka.
type OutboxRepo struct {
	db   *sqlx.DB
	exec sqlx.ExecerContext
}

// OutboxRecord is one unpublished status change.
type OutboxRecord struct {
	ID         int64           `db:"id"`
	EventID    uuid.UUID       `db:"event_id"`
	EventType  string          `db:"event_type"`
	VideoID    uuid.UUID       `db:"aggregate_id"`
	From       domain.Status   `db:"from_status"`
	To         domain.Status   `db:"to_status"`
	Payload    json.RawMessage `db:"payload"`
	OccurredAt time.Time       `db:"occurred_at"`
	Attempts   int             `db:"attempts"`
}

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo {
	return &OutboxRepo{db: db, exec: db}
}

// Add records ev using exec, normally the transaction that changed the video.
func (r *OutboxRepo) Add(ctx context.Context, exec sqlx.ExecerContext, ev *models.VideoStatusChanged) error {
	const q = `
		INSERT INTO outbox (event_id, event_type, aggregate_id, from_status, to_status, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if ev == nil || ev.EventID() == uuid.Nil || ev.AggregateID() == uuid.Nil {
		return models.ErrInvalidArgument
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := exec.ExecContext(ctx, q,
		ev.EventID(),
		ev.EventType(),
		ev.AggregateID(),
		ev.From(),
		ev.To(),
		payload,
		ev.OccurredAt(),
	); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

// GetPending returns unpublished changes in commit order.
func (r *OutboxRepo) GetPending(ctx context.Context, limit int) ([]OutboxRecord, error) {
	const q = `
		SELECT id, event_id, event_type, aggregate_id, from_status, to_status, payload, occurred_at, attempts
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY id ASC
		LIMIT $1
	`
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrInvalidArgument)
	}

	var records []OutboxRecord
	if err := r.db.SelectContext(ctx, &records, q, limit); err != nil {
		return nil, fmt.Errorf("get pending: %w", err)
	}
	return records, nil
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, id int64) error {
	const q = `UPDATE outbox SET processed_at = NOW(), last_error = NULL WHERE id = $1`

	return r.execOne(ctx, "mark processed", q, id)
}

// MarkFailed counts a failed delivery and keeps the cause for operators. The
// row stays pending.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id int64, cause error) error {
	const q = `UPDATE outbox SET attempts = attempts + 1, last_error = $2 WHERE id = $1 AND processed_at IS NULL`

	msg := "unknown error"
	if cause != nil {
		msg = truncate(cause.Error(), maxErrorLength)
	}
	return r.execOne(ctx, "mark failed", q, id, msg)
}

func (r *OutboxRepo) execOne(ctx context.Context, op, q string, args ...any) error {
	res, err := r.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, args[0], models.ErrNotFound)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
