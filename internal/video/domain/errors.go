package domain

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidDecision   = errors.New("invalid decision")
)
