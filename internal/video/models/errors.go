package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidArgument  = errors.New("invalid arguments")
	ErrTooLarge         = errors.New("file too large")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// FetchError reports that a feed or queue load failed. Nothing was mutated, so
// the caller may simply trigger the load again.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UpdateError reports that a moderation decision was not persisted.
type UpdateError struct {
	VideoID  uuid.UUID
	Decision string
	Err      error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update video %s (%s): %v", e.VideoID, e.Decision, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// DownloadError is confined to the download action and never affects playback.
type DownloadError struct {
	VideoID uuid.UUID
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download video %s: %v", e.VideoID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
