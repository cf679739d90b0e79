package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
	"github.com/romariotrain/shortfeed/internal/video/repository"
)

// DefaultMaxUploadBytes caps a single clip at 50 MiB.
const DefaultMaxUploadBytes int64 = 50 << 20

var allowedContentTypes = map[string]string{
	"video/mp4":  "mp4",
	"video/webm": "webm",
}

// AssetStorage stores uploaded binaries and returns their public URL.
type AssetStorage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
}

type Service struct {
	repo           repository.VideoRepository
	assets         AssetStorage
	clock          func() time.Time
	idGen          func() uuid.UUID
	maxUploadBytes int64
	log            zerolog.Logger
}

type Option func(*Service)

func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func New(repo repository.VideoRepository, assets AssetStorage, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		assets:         assets,
		clock:          time.Now,
		idGen:          uuid.New,
		maxUploadBytes: DefaultMaxUploadBytes,
		log:            logger.With().Str("component", "video_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxUploadBytes is the largest clip Submit accepts.
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// GetVideo returns a video by id and passes through models.ErrNotFound so the
// transport layer can map it.
func (s *Service) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

// GetPublicVideo is GetVideo for anonymous callers: anything not publicly
// visible is reported as models.ErrNotFound.
func (s *Service) GetPublicVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.IsPubliclyVisible(v.Status) {
		return nil, models.ErrNotFound
	}
	return v, nil
}

// ListFeed returns the publicly visible videos, newest first.
func (s *Service) ListFeed(ctx context.Context) ([]models.Video, error) {
	return s.listVisible(ctx, domain.Approved, domain.IsPubliclyVisible)
}

// ListQueue returns the videos awaiting moderation, newest first.
func (s *Service) ListQueue(ctx context.Context) ([]models.Video, error) {
	return s.listVisible(ctx, domain.Pending, domain.IsQueued)
}

func (s *Service) listVisible(ctx context.Context, status domain.Status, keep func(domain.Status) bool) ([]models.Video, error) {
	videos, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list %s videos: %w", status, err)
	}
	out := videos[:0]
	for _, v := range videos {
		if keep(v.Status) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Decide applies a moderator decision. The write is conditional on the video
// still being pending, so a concurrent decision surfaces as models.ErrConflict.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, decision domain.Decision) (*models.Video, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	to, err := decision.Target()
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTransition(current.Status, to); err != nil {
		return nil, err
	}

	ev := models.NewVideoStatusChanged(id, current.Status, to, s.clock())
	updated, err := s.repo.Transition(ctx, ev)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.log.Warn().
				Str("video_id", id.String()).
				Str("decision", string(decision)).
				Msg("video changed status concurrently")
		}
		return nil, err
	}

	s.log.Info().
		Str("video_id", id.String()).
		Str("from", string(ev.From())).
		Str("to", string(ev.To())).
		Msg("moderation decision applied")

	return updated, nil
}

type SubmitInput struct {
	Owner       uuid.UUID
	Title       string
	Description string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Submit gates an upload on size and type, stores the binary and creates the
// video as pending.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Video, error) {
	draft, ext, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.%s", in.Owner, s.idGen(), ext)
	url, err := s.assets.Save(ctx, key, io.LimitReader(in.Body, s.maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("save asset: %w", err)
	}
	draft.MediaURL = url

	v, err := s.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("video_id", v.ID.String()).
		Str("owner", v.Owner.String()).
		Int64("size", in.Size).
		Msg("video submitted for review")

	return v, nil
}

// Create persists a draft. The stored video is always pending.
func (s *Service) Create(ctx context.Context, draft models.VideoDraft) (*models.Video, error) {
	if draft.Owner == uuid.Nil || draft.MediaURL == "" {
		return nil, models.ErrInvalidArgument
	}

	now := s.clock()
	v := &models.Video{
		ID:          s.idGen(),
		Owner:       draft.Owner,
		MediaURL:    draft.MediaURL,
		Title:       draft.Title,
		Description: draft.Description,
		Status:      domain.Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) validate(in SubmitInput) (models.VideoDraft, string, error) {
	if in.Owner == uuid.Nil || in.Body == nil {
		return models.VideoDraft{}, "", models.ErrInvalidArgument
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > models.MaxTitleLength {
		return models.VideoDraft{}, "", fmt.Errorf("%w: title must be 1-%d characters", models.ErrInvalidArgument, models.MaxTitleLength)
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return models.VideoDraft{}, "", fmt.Errorf("%w: description exceeds %d characters", models.ErrInvalidArgument, models.MaxDescriptionLength)
	}

	if in.Size <= 0 {
		return models.VideoDraft{}, "", fmt.Errorf("%w: empty file", models.ErrInvalidArgument)
	}
	if in.Size > s.maxUploadBytes {
		return models.VideoDraft{}, "", fmt.Errorf("%w: max %d bytes", models.ErrTooLarge, s.maxUploadBytes)
	}

	ext, ok := allowedContentTypes[strings.ToLower(strings.TrimSpace(in.ContentType))]
	if !ok {
		return models.VideoDraft{}, "", fmt.Errorf("%w: %q", models.ErrUnsupportedMedia, in.ContentType)
	}
	if fileExt := strings.TrimPrefix(strings.ToLower(path.Ext(in.FileName)), "."); fileExt == "mp4" || fileExt == "webm" {
		ext = fileExt
	}

	return models.VideoDraft{
		Owner:       in.Owner,
		Title:       title,
		Description: description,
	}, ext, nil
}
