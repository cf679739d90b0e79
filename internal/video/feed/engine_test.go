package feed

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
	"github.com/romariotrain/shortfeed/internal/video/playback"
)

type recordingMedia struct {
	plays, pauses int
}

func (m *recordingMedia) Autoplay() error { return nil }
func (m *recordingMedia) Play()           { m.plays++ }
func (m *recordingMedia) Pause()          { m.pauses++ }
func (m *recordingMedia) SetMuted(bool)   {}

type harness struct {
	engine   *Engine
	media    map[uuid.UUID]*recordingMedia
	attempts []playback.Attempt
}

func approvedVideos(n int) []models.Video {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Video, n)
	for i := range out {
		out[i] = models.Video{
			ID:        uuid.New(),
			Status:    domain.Approved,
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

func newHarness(videos []models.Video) *harness {
	h := &harness{media: map[uuid.UUID]*recordingMedia{}}
	h.engine = NewEngine(videos, EngineConfig{
		NewMedia: func(v models.Video) playback.Media {
			m := &recordingMedia{}
			h.media[v.ID] = m
			return m
		},
		StartAutoplay: func(_ *playback.Unit, a playback.Attempt) {
			h.attempts = append(h.attempts, a)
		},
		Logger: zerolog.Nop(),
	})
	return h
}

func (h *harness) lastAttempt(t *testing.T) playback.Attempt {
	t.Helper()
	require.NotEmpty(t, h.attempts)
	return h.attempts[len(h.attempts)-1]
}

func TestIndexAt(t *testing.T) {
	cases := []struct {
		name     string
		offset   float64
		viewport float64
		n        int
		want     int
	}{
		{name: "top", offset: 0, viewport: 800, n: 3, want: 0},
		{name: "exact page", offset: 1600, viewport: 800, n: 3, want: 2},
		{name: "rounds down", offset: 1199, viewport: 800, n: 3, want: 1},
		{name: "rounds up", offset: 1200, viewport: 800, n: 3, want: 2},
		{name: "overscroll bottom", offset: 2500, viewport: 800, n: 3, want: 2},
		{name: "overscroll top", offset: -900, viewport: 800, n: 3, want: 0},
		{name: "empty", offset: 100, viewport: 800, n: 0, want: -1},
		{name: "zero viewport", offset: 100, viewport: 0, n: 3, want: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IndexAt(tc.offset, tc.viewport, tc.n))
		})
	}
}

func TestEngine_ScrollActivatesComputedIndex(t *testing.T) {
	h := newHarness(approvedVideos(3))
	h.engine.Mount()
	require.Equal(t, 0, h.engine.ActiveIndex())

	changed := h.engine.Scroll(1600, 800)
	require.True(t, changed)
	assert.Equal(t, 2, h.engine.ActiveIndex())
	assert.Equal(t, playback.Activating, h.engine.Unit(2).State())
	assert.Equal(t, playback.Inactive, h.engine.Unit(0).State())
	assert.Equal(t, playback.Inactive, h.engine.Unit(1).State())
}

func TestEngine_ScrollClampsOverscroll(t *testing.T) {
	h := newHarness(approvedVideos(3))
	h.engine.Mount()

	h.engine.Scroll(2500, 800)
	assert.Equal(t, 2, h.engine.ActiveIndex())
	assert.NotNil(t, h.engine.Active())
}

func TestEngine_RepeatedScrollIsIdempotent(t *testing.T) {
	h := newHarness(approvedVideos(3))
	h.engine.Mount()

	require.True(t, h.engine.Scroll(800, 800))
	attempts := len(h.attempts)
	pauses := h.media[h.engine.Unit(0).Video().ID].pauses

	for i := 0; i < 5; i++ {
		assert.False(t, h.engine.Scroll(800, 800))
		assert.False(t, h.engine.Scroll(850, 800))
	}
	assert.Len(t, h.attempts, attempts)
	assert.Equal(t, pauses, h.media[h.engine.Unit(0).Video().ID].pauses)
	assert.Equal(t, playback.Activating, h.engine.Unit(1).State())
}

func TestEngine_EmptyFeedDoesNothing(t *testing.T) {
	h := newHarness(nil)
	h.engine.Mount()

	assert.False(t, h.engine.Scroll(1000, 800))
	assert.Equal(t, -1, h.engine.ActiveIndex())
	assert.Nil(t, h.engine.Active())
	assert.Empty(t, h.attempts)

	h.engine.Tap()
	h.engine.ToggleMute()
	h.engine.ToggleLike()
}

func TestEngine_DropsVideosThatAreNotApproved(t *testing.T) {
	videos := approvedVideos(2)
	pending := models.Video{ID: uuid.New(), Status: domain.Pending}
	banned := models.Video{ID: uuid.New(), Status: domain.Banned}
	input := []models.Video{videos[0], pending, banned, videos[1], videos[0]}

	h := newHarness(input)
	require.Equal(t, 2, h.engine.Len())
	assert.Nil(t, h.engine.UnitByID(pending.ID))
	assert.Nil(t, h.engine.UnitByID(banned.ID))
	assert.Equal(t, videos[1].ID, h.engine.Unit(1).Video().ID)
}

func TestEngine_PausesPreviousBeforeActivatingNext(t *testing.T) {
	h := newHarness(approvedVideos(2))
	h.engine.Mount()
	require.True(t, h.engine.ResolveAutoplay(h.lastAttempt(t), nil))
	require.True(t, h.engine.Unit(0).Playing())

	h.engine.Scroll(800, 800)
	assert.False(t, h.engine.Unit(0).Playing())
	assert.Equal(t, 1, h.media[h.engine.Unit(0).Video().ID].pauses)
	require.True(t, h.engine.ResolveAutoplay(h.lastAttempt(t), nil))
	assert.Equal(t, 1, h.engine.PlayingCount())
}

func TestEngine_StaleAutoplayVerdictDropped(t *testing.T) {
	h := newHarness(approvedVideos(3))
	h.engine.Mount()
	first := h.lastAttempt(t)

	h.engine.Scroll(800, 800)
	second := h.lastAttempt(t)

	// the verdict for video 0 arrives after the user already moved on
	assert.False(t, h.engine.ResolveAutoplay(first, nil))
	assert.Equal(t, playback.Inactive, h.engine.Unit(0).State())

	assert.True(t, h.engine.ResolveAutoplay(second, nil))
	assert.Equal(t, 1, h.engine.PlayingCount())

	// scrolling back and forth yields a fresh attempt for the same index
	h.engine.Scroll(0, 800)
	h.engine.Scroll(800, 800)
	assert.False(t, h.engine.ResolveAutoplay(second, nil))
	assert.Equal(t, playback.Activating, h.engine.Unit(1).State())
}

func TestEngine_AutoplayBlockedThenTap(t *testing.T) {
	h := newHarness(approvedVideos(1))
	h.engine.Mount()

	require.True(t, h.engine.ResolveAutoplay(h.lastAttempt(t), playback.ErrAutoplayRejected))
	assert.Equal(t, playback.AutoplayBlocked, h.engine.Active().State())

	h.engine.Tap()
	assert.Equal(t, playback.Playing, h.engine.Active().State())
}

func TestEngine_GesturesTargetActiveUnitOnly(t *testing.T) {
	h := newHarness(approvedVideos(2))
	h.engine.Mount()
	h.engine.Scroll(800, 800)

	h.engine.ToggleMute()
	h.engine.ToggleLike()

	assert.True(t, h.engine.Unit(1).Muted())
	assert.True(t, h.engine.Unit(1).Liked())
	assert.False(t, h.engine.Unit(0).Muted())
	assert.False(t, h.engine.Unit(0).Liked())

	// per-video state survives scrolling away and back
	h.engine.Scroll(0, 800)
	h.engine.Scroll(800, 800)
	assert.True(t, h.engine.Unit(1).Muted())
	assert.True(t, h.engine.Unit(1).Liked())
}

func TestEngine_AtMostOnePlayingUnderRandomEvents(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	h := newHarness(approvedVideos(6))
	h.engine.Mount()

	var pending []playback.Attempt
	for step := 0; step < 2000; step++ {
		switch rng.IntN(4) {
		case 0:
			before := len(h.attempts)
			h.engine.Scroll(rng.Float64()*6000-500, 800)
			pending = append(pending, h.attempts[before:]...)
		case 1:
			if len(pending) > 0 {
				i := rng.IntN(len(pending))
				var err error
				if rng.IntN(3) == 0 {
					err = errors.New("NotAllowedError")
				}
				h.engine.ResolveAutoplay(pending[i], err)
				pending = append(pending[:i], pending[i+1:]...)
			}
		case 2:
			h.engine.Tap()
		case 3:
			h.engine.ToggleMute()
		}
		require.LessOrEqual(t, h.engine.PlayingCount(), 1, "step %d", step)
		for i := 0; i < h.engine.Len(); i++ {
			if i != h.engine.ActiveIndex() {
				require.Equal(t, playback.Inactive, h.engine.Unit(i).State(), "step %d unit %d", step, i)
			}
		}
	}
}

func TestEngine_Unmount(t *testing.T) {
	h := newHarness(approvedVideos(2))
	h.engine.Mount()
	h.engine.ResolveAutoplay(h.lastAttempt(t), nil)

	h.engine.Unmount()
	assert.Equal(t, -1, h.engine.ActiveIndex())
	assert.Equal(t, 0, h.engine.PlayingCount())
}

func TestEngine_MissingMediaFallsBackToSilentPlayer(t *testing.T) {
	videos := approvedVideos(2)
	factories := map[string]MediaFactory{
		"no factory":       nil,
		"factory gave nil": func(models.Video) playback.Media { return nil },
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			var attempts []playback.Attempt
			e := NewEngine(videos, EngineConfig{
				NewMedia:      factory,
				StartAutoplay: func(_ *playback.Unit, a playback.Attempt) { attempts = append(attempts, a) },
				Logger:        zerolog.Nop(),
			})

			assert.NotPanics(t, func() {
				e.Mount()
				e.Tap()
				e.ToggleMute()
				e.Scroll(800, 800)
				e.ResolveAutoplay(attempts[len(attempts)-1], nil)
				e.Unmount()
			})
			assert.Len(t, attempts, 2)
			assert.Equal(t, playback.Inactive, e.Unit(1).State())
		})
	}
}
