package feed

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/shortfeed/internal/video/models"
	"github.com/romariotrain/shortfeed/internal/video/playback"
)

var (
	ErrSessionClosed  = errors.New("feed session closed")
	ErrSessionRunning = errors.New("feed session already started")
)

type Downloader interface {
	Download(ctx context.Context, v models.Video) (string, error)
}

type NotificationKind string

const (
	DownloadSaved  NotificationKind = "download_saved"
	DownloadFailed NotificationKind = "download_failed"
)

// Notification is a one-shot message for the user.
type Notification struct {
	Kind    NotificationKind
	VideoID uuid.UUID
	Path    string
	Err     error
}

type Notifier interface {
	Notify(n Notification)
}

type LogNotifier struct {
	Logger zerolog.Logger
}

func (l LogNotifier) Notify(n Notification) {
	if n.Err != nil {
		l.Logger.Error().Err(n.Err).Str("video_id", n.VideoID.String()).Str("kind", string(n.Kind)).Msg("feed notification")
		return
	}
	l.Logger.Info().Str("video_id", n.VideoID.String()).Str("kind", string(n.Kind)).Str("path", n.Path).Msg("feed notification")
}

type SessionConfig struct {
	NewMedia   MediaFactory
	Downloader Downloader
	Notifier   Notifier
	Logger     zerolog.Logger
}

type UnitSnapshot struct {
	VideoID     uuid.UUID
	State       playback.State
	Muted       bool
	Liked       bool
	Downloading bool
	Likes       int64
}

type Snapshot struct {
	Active int
	Units  []UnitSnapshot
}

// Session owns one Engine and processes every input on a single goroutine:
// scroll, gestures, autoplay verdicts and download completions are handled one
// at a time, in arrival order.
type Session struct {
	engine     *Engine
	downloader Downloader
	notify     Notifier
	events     chan func(ctx context.Context)
	done       chan struct{}
	started    atomic.Bool
	log        zerolog.Logger
}

func NewSession(videos []models.Video, cfg SessionConfig) *Session {
	s := &Session{
		downloader: cfg.Downloader,
		notify:     cfg.Notifier,
		events:     make(chan func(ctx context.Context), 64),
		done:       make(chan struct{}),
		log:        cfg.Logger.With().Str("component", "feed_session").Logger(),
	}
	if s.notify == nil {
		s.notify = LogNotifier{Logger: s.log}
	}
	s.engine = NewEngine(videos, EngineConfig{
		NewMedia:      cfg.NewMedia,
		StartAutoplay: s.startAutoplay,
		Logger:        cfg.Logger,
	})
	return s
}

// Run mounts the feed and processes events until ctx is done, then unmounts.
// A session runs once; later calls return ErrSessionRunning.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrSessionRunning
	}
	defer close(s.done)

	s.engine.Mount()
	s.log.Info().Int("videos", s.engine.Len()).Msg("feed session started")

	for {
		select {
		case <-ctx.Done():
			s.engine.Unmount()
			s.log.Info().Msg("feed session stopped")
			return nil
		case ev := <-s.events:
			ev(ctx)
		}
	}
}

func (s *Session) post(ev func(ctx context.Context)) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) Scroll(offset, viewportHeight float64) error {
	return s.post(func(context.Context) { s.engine.Scroll(offset, viewportHeight) })
}

func (s *Session) Tap() error {
	return s.post(func(context.Context) { s.engine.Tap() })
}

func (s *Session) ToggleMute() error {
	return s.post(func(context.Context) { s.engine.ToggleMute() })
}

func (s *Session) ToggleLike() error {
	return s.post(func(context.Context) { s.engine.ToggleLike() })
}

// Download saves the active video in the background. Its outcome is reported
// through the Notifier and never touches playback state.
func (s *Session) Download() error {
	return s.post(func(ctx context.Context) {
		u := s.engine.Active()
		if u == nil || s.downloader == nil || !u.BeginDownload() {
			return
		}
		v := u.Video()
		go func() {
			path, err := s.downloader.Download(ctx, v)
			_ = s.post(func(context.Context) {
				if unit := s.engine.UnitByID(v.ID); unit != nil {
					unit.EndDownload()
				}
				if err != nil {
					s.notify.Notify(Notification{Kind: DownloadFailed, VideoID: v.ID, Err: err})
					return
				}
				s.notify.Notify(Notification{Kind: DownloadSaved, VideoID: v.ID, Path: path})
			})
		}()
	})
}

// Snapshot returns the state of the feed after every previously posted event
// has been handled.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := s.post(func(context.Context) { reply <- s.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-s.done:
		return Snapshot{}, ErrSessionClosed
	}
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		Active: s.engine.ActiveIndex(),
		Units:  make([]UnitSnapshot, 0, s.engine.Len()),
	}
	for i := 0; i < s.engine.Len(); i++ {
		u := s.engine.Unit(i)
		snap.Units = append(snap.Units, UnitSnapshot{
			VideoID:     u.Video().ID,
			State:       u.State(),
			Muted:       u.Muted(),
			Liked:       u.Liked(),
			Downloading: u.Downloading(),
			Likes:       u.DisplayLikes(),
		})
	}
	return snap
}

func (s *Session) startAutoplay(u *playback.Unit, a playback.Attempt) {
	media := u.Media()
	go func() {
		err := media.Autoplay()
		_ = s.post(func(context.Context) {
			if !s.engine.ResolveAutoplay(a, err) {
				s.log.Debug().Int("index", a.Index).Msg("stale autoplay verdict dropped")
			}
		})
	}()
}
