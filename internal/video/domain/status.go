package domain

import "fmt"

type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Banned   Status = "banned"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case Pending, Approved, Banned:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status: %q", s)
	}
}

// CanTransition reports whether a moderator may move a video from one status to another.
// Only pending videos can change; approved and banned are terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case Pending:
		return to == Approved || to == Banned
	case Approved:
		return false
	case Banned:
		return false
	default:
		return false
	}
}

func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsPubliclyVisible reports whether a video with this status may appear in the feed.
func IsPubliclyVisible(s Status) bool { return s == Approved }

// IsQueued reports whether a video with this status awaits a moderator.
func IsQueued(s Status) bool { return s == Pending }
