package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	data   map[uuid.UUID]*models.Video
	events []*models.VideoStatusChanged
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]*models.Video),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, v *models.Video) error {
	if v == nil {
		return models.ErrInvalidArgument
	}
	if v.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[v.ID]; exists {
		return models.ErrConflict
	}

	// stored copy is never shared with the caller
	cp := *v
	r.data[v.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *MemoryRepository) ListByStatus(ctx context.Context, status domain.Status) ([]models.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]models.Video, 0, len(r.data))
	for _, v := range r.data {
		if v.Status == status {
			out = append(out, *v)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Transition(ctx context.Context, ev *models.VideoStatusChanged) (*models.Video, error) {
	if ev == nil || ev.AggregateID() == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.data[ev.AggregateID()]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v.Status != ev.From() {
		return nil, models.ErrConflict
	}
	v.Status = ev.To()
	v.UpdatedAt = ev.OccurredAt()
	r.events = append(r.events, ev)

	cp := *v
	return &cp, nil
}

// Events returns the status changes recorded so far, oldest first.
func (r *MemoryRepository) Events() []*models.VideoStatusChanged {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.VideoStatusChanged, len(r.events))
	copy(out, r.events)
	return out
}
