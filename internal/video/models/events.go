package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/shortfeed/internal/video/domain"
)

// VideoStatusChanged records one moderator decision.
type VideoStatusChanged struct {
	eventID    uuid.UUID
	videoID    uuid.UUID
	from       domain.Status
	to         domain.Status
	occurredAt time.Time
}

func NewVideoStatusChanged(videoID uuid.UUID, from, to domain.Status, at time.Time) *VideoStatusChanged {
	return &VideoStatusChanged{
		eventID:    uuid.New(),
		videoID:    videoID,
		from:       from,
		to:         to,
		occurredAt: at,
	}
}

func (e *VideoStatusChanged) EventID() uuid.UUID     { return e.eventID }
func (e *VideoStatusChanged) EventType() string      { return "VideoStatusChanged" }
func (e *VideoStatusChanged) AggregateID() uuid.UUID { return e.videoID }
func (e *VideoStatusChanged) OccurredAt() time.Time  { return e.occurredAt }

func (e *VideoStatusChanged) From() domain.Status { return e.from }
func (e *VideoStatusChanged) To() domain.Status   { return e.to }

func (e *VideoStatusChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID     `json:"event_id"`
		VideoID    uuid.UUID     `json:"video_id"`
		From       domain.Status `json:"from"`
		To         domain.Status `json:"to"`
		OccurredAt time.Time     `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		VideoID:    e.videoID,
		From:       e.from,
		To:         e.to,
		OccurredAt: e.occurredAt,
	})
}
