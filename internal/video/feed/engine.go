// Package feed implements the scroll-driven feed: exactly one video is active
// at a time and the active one is derived from scroll position alone.
package feed

import (
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
	"github.com/romariotrain/shortfeed/internal/video/playback"
)

// MediaFactory creates the host player for one video.
type MediaFactory func(models.Video) playback.Media

// AutoplayStarter runs the autoplay attempt for an activated unit. The verdict
// must come back through Engine.ResolveAutoplay.
type AutoplayStarter func(u *playback.Unit, a playback.Attempt)

type EngineConfig struct {
	NewMedia      MediaFactory
	StartAutoplay AutoplayStarter
	Logger        zerolog.Logger
}

// Engine is not safe for concurrent use; Session drives it from one goroutine.
type Engine struct {
	order  []uuid.UUID
	units  map[uuid.UUID]*playback.Unit
	active int
	start  AutoplayStarter
	log    zerolog.Logger
}

// NewEngine keeps only publicly visible videos, in the given order, dropping
// duplicate ids.
func NewEngine(videos []models.Video, cfg EngineConfig) *Engine {
	e := &Engine{
		order:  make([]uuid.UUID, 0, len(videos)),
		units:  make(map[uuid.UUID]*playback.Unit, len(videos)),
		active: -1,
		start:  cfg.StartAutoplay,
		log:    cfg.Logger.With().Str("component", "feed_engine").Logger(),
	}

	for _, v := range videos {
		if !domain.IsPubliclyVisible(v.Status) {
			e.log.Warn().
				Str("video_id", v.ID.String()).
				Str("status", string(v.Status)).
				Msg("dropping video that is not publicly visible")
			continue
		}
		if _, dup := e.units[v.ID]; dup {
			continue
		}
		e.order = append(e.order, v.ID)
		var media playback.Media
		if cfg.NewMedia != nil {
			media = cfg.NewMedia(v)
		}
		e.units[v.ID] = playback.NewUnit(v, media)
	}
	return e
}

func (e *Engine) Len() int { return len(e.order) }

// ActiveIndex is -1 while nothing is active.
func (e *Engine) ActiveIndex() int { return e.active }

func (e *Engine) Active() *playback.Unit {
	if e.active < 0 {
		return nil
	}
	return e.Unit(e.active)
}

func (e *Engine) Unit(i int) *playback.Unit {
	if i < 0 || i >= len(e.order) {
		return nil
	}
	return e.units[e.order[i]]
}

func (e *Engine) UnitByID(id uuid.UUID) *playback.Unit {
	return e.units[id]
}

// Mount activates the first video, as the feed does when it appears.
func (e *Engine) Mount() {
	if len(e.order) == 0 || e.active >= 0 {
		return
	}
	e.activate(0)
}

// Unmount deactivates the active unit.
func (e *Engine) Unmount() {
	if u := e.Active(); u != nil {
		u.Deactivate()
	}
	e.active = -1
}

// IndexAt maps a scroll offset onto a valid index, or -1 for an empty feed or
// a non-positive viewport.
func IndexAt(offset, viewportHeight float64, n int) int {
	if n == 0 || viewportHeight <= 0 || math.IsNaN(offset) {
		return -1
	}
	idx := math.Round(offset / viewportHeight)
	switch {
	case idx < 0:
		return 0
	case idx > float64(n-1):
		return n - 1
	default:
		return int(idx)
	}
}

// Scroll recomputes the active index for a scroll event. It reports whether
// the active video changed; repeated events at the same index do nothing.
func (e *Engine) Scroll(offset, viewportHeight float64) bool {
	idx := IndexAt(offset, viewportHeight, len(e.order))
	if idx < 0 || idx == e.active {
		return false
	}
	e.activate(idx)
	return true
}

// activate pauses the previous unit before the next one is asked to play.
func (e *Engine) activate(idx int) {
	if prev := e.Active(); prev != nil {
		prev.Deactivate()
	}
	e.active = idx

	u := e.Unit(idx)
	a := u.Activate(idx)
	e.log.Debug().
		Int("index", idx).
		Str("video_id", u.Video().ID.String()).
		Msg("video activated")
	if e.start != nil {
		e.start(u, a)
	}
}

// ResolveAutoplay routes a host verdict to its unit. Verdicts for units that
// are no longer active are dropped.
func (e *Engine) ResolveAutoplay(a playback.Attempt, err error) bool {
	if a.Index != e.active {
		return false
	}
	u := e.Unit(a.Index)
	if u == nil {
		return false
	}
	applied := u.ResolveAutoplay(a, err)
	if applied && err != nil {
		e.log.Debug().Err(err).Int("index", a.Index).Msg("autoplay blocked")
	}
	return applied
}

func (e *Engine) Tap() {
	if u := e.Active(); u != nil {
		u.Tap()
	}
}

func (e *Engine) ToggleMute() {
	if u := e.Active(); u != nil {
		u.ToggleMute()
	}
}

func (e *Engine) ToggleLike() {
	if u := e.Active(); u != nil {
		u.ToggleLike()
	}
}

// PlayingCount is the number of units currently playing.
func (e *Engine) PlayingCount() int {
	n := 0
	for _, u := range e.units {
		if u.Playing() {
			n++
		}
	}
	return n
}
