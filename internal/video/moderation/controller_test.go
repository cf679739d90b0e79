package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
	"github.com/romariotrain/shortfeed/internal/video/repository"
	"github.com/romariotrain/shortfeed/internal/video/service"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) ListQueue(ctx context.Context) ([]models.Video, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) Decide(ctx context.Context, id uuid.UUID, decision domain.Decision) (*models.Video, error) {
	args := m.Called(ctx, id, decision)
	if v := args.Get(0); v != nil {
		return v.(*models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func pendingVideo(at time.Time) models.Video {
	return models.Video{ID: uuid.New(), Owner: uuid.New(), Status: domain.Pending, CreatedAt: at}
}

func ids(videos []models.Video) []uuid.UUID {
	out := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func TestDecide_ApproveAgainstRealStore(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := service.New(repo, nil, zerolog.Nop())

	now := time.Now()
	a, b := pendingVideo(now), pendingVideo(now.Add(-time.Minute))
	require.NoError(t, repo.Create(ctx, &b))
	require.NoError(t, repo.Create(ctx, &a))

	c := NewController(svc, zerolog.Nop())
	queue, err := c.LoadQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a.ID, b.ID}, ids(queue))

	require.NoError(t, c.Decide(ctx, a.ID, domain.Approve))
	assert.Equal(t, []uuid.UUID{b.ID}, ids(c.Videos()))

	stored, err := svc.GetVideo(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Approved, stored.Status)
	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, a.ID, events[0].AggregateID())
	assert.Equal(t, domain.Approved, events[0].To())

	queue, err = c.LoadQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, ids(queue))

	feed, err := svc.ListFeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids(feed))
}

func TestDecide_OptimisticRemovalBeforeStoreConfirms(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	c := NewController(st, zerolog.Nop())

	now := time.Now()
	a, b := pendingVideo(now), pendingVideo(now.Add(-time.Minute))
	st.On("ListQueue", mock.Anything).Return([]models.Video{a, b}, nil).Once()
	_, err := c.LoadQueue(ctx)
	require.NoError(t, err)

	var seenDuringCall []uuid.UUID
	st.On("Decide", mock.Anything, a.ID, domain.Approve).
		Run(func(mock.Arguments) { seenDuringCall = ids(c.Videos()) }).
		Return(&models.Video{ID: a.ID, Status: domain.Approved}, nil).
		Once()

	require.NoError(t, c.Decide(ctx, a.ID, domain.Approve))
	assert.Equal(t, []uuid.UUID{b.ID}, seenDuringCall)
	assert.Equal(t, 1, c.Len())
	st.AssertExpectations(t)
}

func TestDecide_StaleDoubleClickIsNoop(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	c := NewController(st, zerolog.Nop())

	x := pendingVideo(time.Now())
	st.On("ListQueue", mock.Anything).Return([]models.Video{x}, nil).Once()
	_, err := c.LoadQueue(ctx)
	require.NoError(t, err)

	st.On("Decide", mock.Anything, x.ID, domain.Ban).Return(&models.Video{ID: x.ID, Status: domain.Banned}, nil).Once()

	require.NoError(t, c.Decide(ctx, x.ID, domain.Ban))
	require.NoError(t, c.Decide(ctx, x.ID, domain.Ban))

	st.AssertNumberOfCalls(t, "Decide", 1)
	assert.Zero(t, c.Len())
}

func TestDecide_FailureReloadsQueue(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	c := NewController(st, zerolog.Nop())

	now := time.Now()
	a, b := pendingVideo(now), pendingVideo(now.Add(-time.Minute))
	st.On("ListQueue", mock.Anything).Return([]models.Video{a, b}, nil).Twice()
	_, err := c.LoadQueue(ctx)
	require.NoError(t, err)

	cause := errors.New("update rejected")
	st.On("Decide", mock.Anything, a.ID, domain.Approve).Return(nil, cause).Once()

	err = c.Decide(ctx, a.ID, domain.Approve)
	var uerr *models.UpdateError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, a.ID, uerr.VideoID)
	require.ErrorIs(t, err, cause)

	// the item comes back from the reload rather than being spliced in
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids(c.Videos()))
	st.AssertExpectations(t)
}

func TestDecide_FailureAndReloadFailure(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	c := NewController(st, zerolog.Nop())

	a := pendingVideo(time.Now())
	st.On("ListQueue", mock.Anything).Return([]models.Video{a}, nil).Once()
	_, err := c.LoadQueue(ctx)
	require.NoError(t, err)

	st.On("Decide", mock.Anything, a.ID, domain.Ban).Return(nil, errors.New("timeout")).Once()
	st.On("ListQueue", mock.Anything).Return(nil, errors.New("offline")).Once()

	err = c.Decide(ctx, a.ID, domain.Ban)
	var uerr *models.UpdateError
	var ferr *models.FetchError
	require.ErrorAs(t, err, &uerr)
	require.ErrorAs(t, err, &ferr)
	assert.Zero(t, c.Len())
}

func TestDecide_InvalidDecision(t *testing.T) {
	st := new(StoreMock)
	c := NewController(st, zerolog.Nop())

	a := pendingVideo(time.Now())
	st.On("ListQueue", mock.Anything).Return([]models.Video{a}, nil).Once()
	_, err := c.LoadQueue(context.Background())
	require.NoError(t, err)

	err = c.Decide(context.Background(), a.ID, domain.Decision("hide"))
	require.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Equal(t, 1, c.Len())
	st.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadQueue_FailureKeepsView(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	c := NewController(st, zerolog.Nop())

	a := pendingVideo(time.Now())
	st.On("ListQueue", mock.Anything).Return([]models.Video{a}, nil).Once()
	_, err := c.LoadQueue(ctx)
	require.NoError(t, err)

	cause := errors.New("store unavailable")
	st.On("ListQueue", mock.Anything).Return(nil, cause).Once()
	got, err := c.LoadQueue(ctx)
	require.Nil(t, got)
	var ferr *models.FetchError
	require.ErrorAs(t, err, &ferr)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, []uuid.UUID{a.ID}, ids(c.Videos()))
}

func TestLoadQueue_DropsNonPending(t *testing.T) {
	st := new(StoreMock)
	c := NewController(st, zerolog.Nop())

	a := pendingVideo(time.Now())
	approved := models.Video{ID: uuid.New(), Status: domain.Approved}
	st.On("ListQueue", mock.Anything).Return([]models.Video{a, approved}, nil).Once()

	got, err := c.LoadQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids(got))
}

func TestLoadQueue_NewestFirstWhateverStoreOrder(t *testing.T) {
	st := new(StoreMock)
	c := NewController(st, zerolog.Nop())

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	oldest := pendingVideo(base)
	middle := pendingVideo(base.Add(time.Hour))
	newest := pendingVideo(base.Add(2 * time.Hour))
	st.On("ListQueue", mock.Anything).Return([]models.Video{oldest, middle, newest}, nil).Once()

	got, err := c.LoadQueue(context.Background())
	require.NoError(t, err)
	want := []uuid.UUID{newest.ID, middle.ID, oldest.ID}
	assert.Equal(t, want, ids(got))
	assert.Equal(t, want, ids(c.Videos()))
}
