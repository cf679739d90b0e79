// Package moderation keeps a moderator's local view of the pending queue in
// step with the store.
//
// A decision removes the video from the local view before the store confirms.
// When the store rejects the write the controller does not try to put the item
// back where it was: it reloads the whole queue, so the view always ends up
// matching the store.
package moderation

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
)

// Store is the part of the content store a moderator needs.
type Store interface {
	ListQueue(ctx context.Context) ([]models.Video, error)
	Decide(ctx context.Context, id uuid.UUID, decision domain.Decision) (*models.Video, error)
}

type Controller struct {
	store Store
	log   zerolog.Logger

	mu     sync.Mutex
	videos []models.Video
}

func NewController(store Store, logger zerolog.Logger) *Controller {
	return &Controller{
		store: store,
		log:   logger.With().Str("component", "moderation_queue").Logger(),
	}
}

// LoadQueue replaces the local view with the pending videos from the store,
// newest first. On failure the previous view is kept and a *models.FetchError
// is returned; nothing is retried.
func (c *Controller) LoadQueue(ctx context.Context) ([]models.Video, error) {
	videos, err := c.store.ListQueue(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to load moderation queue")
		return nil, &models.FetchError{Op: "queue", Err: err}
	}

	queue := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if domain.IsQueued(v.Status) {
			queue = append(queue, v)
		}
	}
	slices.SortStableFunc(queue, func(a, b models.Video) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	c.mu.Lock()
	c.videos = queue
	c.mu.Unlock()

	return slices.Clone(queue), nil
}

// Videos returns a copy of the local view.
func (c *Controller) Videos() []models.Video {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.videos)
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.videos)
}

// Decide applies a moderator decision to a video in the local view.
//
// A video that is not in the view (already decided, or never loaded) is a
// no-op: the store is not called and nil is returned. When the store fails the
// result is a *models.UpdateError, joined with the reload error if the
// follow-up reload failed as well.
func (c *Controller) Decide(ctx context.Context, id uuid.UUID, decision domain.Decision) error {
	if !decision.Valid() {
		return models.ErrInvalidArgument
	}
	if !c.remove(id) {
		c.log.Debug().Str("video_id", id.String()).Msg("decision for video not in queue ignored")
		return nil
	}

	if _, err := c.store.Decide(ctx, id, decision); err != nil {
		uerr := &models.UpdateError{VideoID: id, Decision: string(decision), Err: err}
		c.log.Error().
			Err(err).
			Str("video_id", id.String()).
			Str("decision", string(decision)).
			Msg("failed to apply decision, reloading queue")

		if _, rerr := c.LoadQueue(ctx); rerr != nil {
			return errors.Join(uerr, rerr)
		}
		return uerr
	}

	c.log.Info().
		Str("video_id", id.String()).
		Str("decision", string(decision)).
		Msg("decision applied")
	return nil
}

func (c *Controller) remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.videos, func(v models.Video) bool { return v.ID == id })
	if i < 0 {
		return false
	}
	c.videos = slices.Delete(c.videos, i, i+1)
	return true
}
