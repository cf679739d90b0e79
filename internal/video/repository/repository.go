package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
)

// VideoRepository is the content store contract.
type VideoRepository interface {
	Create(ctx context.Context, v *models.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	// ListByStatus returns videos with the given status, newest first.
	ListByStatus(ctx context.Context, status domain.Status) ([]models.Video, error)
	// Transition moves the video from ev.From() to ev.To() only if it is still
	// in ev.From(); otherwise it returns models.ErrConflict. Implementations
	// that keep an outbox record ev in the same write.
	Transition(ctx context.Context, ev *models.VideoStatusChanged) (*models.Video, error)
}
