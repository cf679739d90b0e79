package feed

import (
	"context"
	"sort"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
)

// Source lists the approved videos.
type Source interface {
	ListFeed(ctx context.Context) ([]models.Video, error)
}

type Loader struct {
	src Source
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Load fetches the feed once, newest first. An empty feed is not an error.
func (l *Loader) Load(ctx context.Context) ([]models.Video, error) {
	videos, err := l.src.ListFeed(ctx)
	if err != nil {
		return nil, &models.FetchError{Op: "feed", Err: err}
	}

	out := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if domain.IsPubliclyVisible(v.Status) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
