package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/shortfeed/internal/video/domain"
)

const (
	MaxTitleLength       = 50
	MaxDescriptionLength = 200
)

type Video struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	Owner       uuid.UUID     `db:"owner_id" json:"owner"`
	MediaURL    string        `db:"media_url" json:"media_url"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	Status      domain.Status `db:"status" json:"status"`
	LikesCount  int64         `db:"likes_count" json:"likes_count"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// VideoDraft is what the upload path hands to the store. Status is not part of
// the draft: every new video starts pending.
type VideoDraft struct {
	Owner       uuid.UUID
	MediaURL    string
	Title       string
	Description string
}
