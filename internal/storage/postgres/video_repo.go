package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
)

const videoColumns = `id, owner_id, media_url, title, description, status, likes_count, created_at, updated_at`

type VideoRepo struct {
	db     *sqlx.DB
	outbox *OutboxRepo
}

func NewVideoRepo(db *sqlx.DB, outbox *OutboxRepo) *VideoRepo {
	return &VideoRepo{db: db, outbox: outbox}
}

func (r *VideoRepo) Create(ctx context.Context, v *models.Video) error {
	const q = `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, q,
		v.ID, v.Owner, v.MediaURL, v.Title, v.Description, v.Status, v.LikesCount, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrConflict
		}
		return fmt.Errorf("video create: %w", err)
	}
	return nil
}

func (r *VideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	const q = `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE id = $1
	`

	var v models.Video
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("video get by id: %w", err)
	}
	return &v, nil
}

func (r *VideoRepo) ListByStatus(ctx context.Context, status domain.Status) ([]models.Video, error) {
	const q = `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE status = $1
		ORDER BY created_at DESC, id
	`

	videos := []models.Video{}
	if err := r.db.SelectContext(ctx, &videos, q, status); err != nil {
		return nil, fmt.Errorf("video list by status: %w", err)
	}
	return videos, nil
}

// Transition updates the status only while the row still holds ev.From() and
// records ev in the outbox within the same transaction.
func (r *VideoRepo) Transition(ctx context.Context, ev *models.VideoStatusChanged) (*models.Video, error) {
	const q = `
		UPDATE videos
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + videoColumns

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var v models.Video
	if err := tx.GetContext(ctx, &v, q, ev.AggregateID(), ev.From(), ev.To(), ev.OccurredAt()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missingOrConflict(ctx, tx, ev.AggregateID())
		}
		return nil, fmt.Errorf("video transition: %w", err)
	}

	if r.outbox != nil {
		if err := r.outbox.Add(ctx, tx, ev); err != nil {
			return nil, fmt.Errorf("add outbox: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &v, nil
}

func (r *VideoRepo) missingOrConflict(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("video exists: %w", err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return models.ErrConflict
}
