package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/shortfeed/internal/video/models"
)

type DecisionRequest struct {
	Decision string `json:"decision"`
}

type VideoResponse struct {
	ID          uuid.UUID `json:"id"`
	Owner       uuid.UUID `json:"owner"`
	MediaURL    string    `json:"media_url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	LikesCount  int64     `json:"likes_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VideoListResponse struct {
	Videos []VideoResponse `json:"videos"`
}

func toVideoResponse(v *models.Video) VideoResponse {
	return VideoResponse{
		ID:          v.ID,
		Owner:       v.Owner,
		MediaURL:    v.MediaURL,
		Title:       v.Title,
		Description: v.Description,
		Status:      string(v.Status),
		LikesCount:  v.LikesCount,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func toVideoListResponse(videos []models.Video) VideoListResponse {
	out := VideoListResponse{Videos: make([]VideoResponse, 0, len(videos))}
	for i := range videos {
		out.Videos = append(out.Videos, toVideoResponse(&videos[i]))
	}
	return out
}
