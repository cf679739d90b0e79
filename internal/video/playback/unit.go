// Package playback holds the per-video player state driven by the feed engine
// and by direct user gestures.
package playback

import (
	"errors"

	"github.com/romariotrain/shortfeed/internal/video/models"
)

// ErrAutoplayRejected is what a host returns when its policy refuses to start
// playback without a user gesture.
var ErrAutoplayRejected = errors.New("autoplay rejected")

type State int

const (
	Inactive State = iota
	Activating
	Playing
	Paused
	AutoplayBlocked
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Activating:
		return "activating"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case AutoplayBlocked:
		return "autoplay-blocked"
	default:
		return "unknown"
	}
}

// Media is the host's handle on one underlying player.
//
// Autoplay may block until the host decides; it is called off the feed's event
// loop, so implementations must tolerate Pause and SetMuted arriving meanwhile.
type Media interface {
	Autoplay() error
	Play()
	Pause()
	SetMuted(muted bool)
}

// Attempt identifies one autoplay request. A verdict for an attempt whose token
// no longer matches its unit is stale and gets dropped.
type Attempt struct {
	Index int
	Token uint64
}

type Unit struct {
	video       models.Video
	media       Media
	state       State
	token       uint64
	muted       bool
	liked       bool
	downloading bool
}

// NewUnit builds an inactive unit. A nil media gets a player that does
// nothing and always autoplays.
func NewUnit(v models.Video, media Media) *Unit {
	if media == nil {
		media = silentMedia{}
	}
	return &Unit{video: v, media: media}
}

func (u *Unit) Video() models.Video { return u.video }
func (u *Unit) Media() Media        { return u.media }
func (u *Unit) State() State        { return u.state }
func (u *Unit) Muted() bool         { return u.muted }
func (u *Unit) Liked() bool         { return u.liked }
func (u *Unit) Downloading() bool   { return u.downloading }

// Playing reports whether the unit is audibly playing.
func (u *Unit) Playing() bool { return u.state == Playing }

// ShowsPlayOverlay reports whether the paused affordance should be visible.
func (u *Unit) ShowsPlayOverlay() bool { return u.state != Playing }

// Activate marks the unit as the intended active one and opens a new autoplay
// attempt. The caller is responsible for running media.Autoplay and reporting
// the verdict through ResolveAutoplay.
func (u *Unit) Activate(index int) Attempt {
	u.token++
	u.state = Activating
	return Attempt{Index: index, Token: u.token}
}

// ResolveAutoplay applies the host verdict for a. It returns false when the
// attempt is stale: the unit was deactivated, tapped, or re-activated since.
func (u *Unit) ResolveAutoplay(a Attempt, err error) bool {
	if a.Token != u.token || u.state != Activating {
		return false
	}
	if err != nil {
		u.state = AutoplayBlocked
		return true
	}
	u.state = Playing
	return true
}

// Deactivate forces the unit back to inactive whatever it was doing. A blocked
// autoplay is forgotten so the next activation tries again.
func (u *Unit) Deactivate() {
	u.token++
	u.media.Pause()
	u.state = Inactive
}

// Tap handles the tap-to-toggle gesture.
func (u *Unit) Tap() {
	switch u.state {
	case Playing, Activating:
		u.token++
		u.media.Pause()
		u.state = Paused
	case Paused, AutoplayBlocked:
		u.media.Play()
		u.state = Playing
	case Inactive:
	}
}

func (u *Unit) ToggleMute() {
	u.muted = !u.muted
	u.media.SetMuted(u.muted)
}

func (u *Unit) ToggleLike() {
	u.liked = !u.liked
}

// DisplayLikes is the stored count plus the local like.
func (u *Unit) DisplayLikes() int64 {
	if u.liked {
		return u.video.LikesCount + 1
	}
	return u.video.LikesCount
}

// BeginDownload reports whether a new download may start.
func (u *Unit) BeginDownload() bool {
	if u.downloading {
		return false
	}
	u.downloading = true
	return true
}

func (u *Unit) EndDownload() {
	u.downloading = false
}

type silentMedia struct{}

func (silentMedia) Autoplay() error { return nil }
func (silentMedia) Play()           {}
func (silentMedia) Pause()          {}
func (silentMedia) SetMuted(bool)   {}
