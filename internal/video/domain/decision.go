package domain

import "fmt"

// Decision is the moderator verdict on a pending video.
type Decision string

const (
	Approve Decision = "approve"
	Ban     Decision = "ban"
)

func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
	return d, nil
}

func (d Decision) Valid() bool {
	return d == Approve || d == Ban
}

// Target returns the status a pending video ends up in after the decision.
func (d Decision) Target() (Status, error) {
	switch d {
	case Approve:
		return Approved, nil
	case Ban:
		return Banned, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, string(d))
	}
}
