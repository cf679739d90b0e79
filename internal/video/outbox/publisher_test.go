package outbox

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

	"github.com/romariotrain/shortfeed/internal/storage/postgres"
	"github.com/romariotrain/shortfeed/internal/video/domain"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) GetPending(ctx context.Context, limit int) ([]postgres.OutboxRecord, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]postgres.OutboxRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) MarkProcessed(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *StoreMock) MarkFailed(ctx context.Context, id int64, cause error) error {
	return m.Called(ctx, id, cause).Error(0)
}

type ProducerMock struct {
	mock.Mock
}

func (m *ProducerMock) Publish(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func TestNewPublisher_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PublisherConfig
		wantErr string
	}{
		{name: "no store", cfg: PublisherConfig{Producer: new(ProducerMock), Interval: time.Second, BatchSize: 1}, wantErr: "outbox store is required"},
		{name: "no producer", cfg: PublisherConfig{Store: new(StoreMock), Interval: time.Second, BatchSize: 1}, wantErr: "event producer is required"},
		{name: "zero interval", cfg: PublisherConfig{Store: new(StoreMock), Producer: new(ProducerMock), BatchSize: 1}, wantErr: "interval must be positive"},
		{name: "zero batch", cfg: PublisherConfig{Store: new(StoreMock), Producer: new(ProducerMock), Interval: time.Second}, wantErr: "batch size must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPublisher(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPublishBatch(t *testing.T) {
	ctx := context.Background()
	store := new(StoreMock)
	producer := new(ProducerMock)

	p, err := NewPublisher(PublisherConfig{
		Store:     store,
		Producer:  producer,
		Interval:  time.Second,
		BatchSize: 10,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	e1, e2, e3 := uuid.New(), uuid.New(), uuid.New()
	records := []postgres.OutboxRecord{
		{ID: 1, EventID: e1, EventType: "VideoStatusChanged", VideoID: uuid.New(), From: domain.Pending, To: domain.Approved, Payload: []byte(`{"to":"approved"}`)},
		{ID: 2, EventID: e2, EventType: "VideoStatusChanged", VideoID: uuid.New(), From: domain.Pending, To: domain.Banned, Payload: []byte(`{"to":"banned"}`)},
		{ID: 3, EventID: e3, EventType: "VideoStatusChanged", VideoID: uuid.New(), From: domain.Pending, To: domain.Approved, Payload: []byte(`{"to":"approved"}`)},
	}
	store.On("GetPending", mock.Anything, 10).Return(records, nil).Once()

	brokerErr := errors.New("leader not available")
	producer.On("Publish", mock.Anything, e1.String(), mock.Anything).Return(nil).Once()
	producer.On("Publish", mock.Anything, e2.String(), mock.Anything).Return(brokerErr).Once()
	producer.On("Publish", mock.Anything, e3.String(), mock.Anything).Return(nil).Once()

	store.On("MarkProcessed", mock.Anything, int64(1)).Return(nil).Once()
	store.On("MarkFailed", mock.Anything, int64(2), brokerErr).Return(nil).Once()
	store.On("MarkProcessed", mock.Anything, int64(3)).Return(errors.New("db gone")).Once()

	res, err := p.PublishBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Total: 3, Published: 2, Failed: 1, Marked: 1}, res)
	store.AssertExpectations(t)
	producer.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, int64(2))
}

func TestPublishBatch_StoreError(t *testing.T) {
	store := new(StoreMock)
	producer := new(ProducerMock)
	p, err := NewPublisher(PublisherConfig{Store: store, Producer: producer, Interval: time.Second, BatchSize: 5, Logger: zerolog.Nop()})
	require.NoError(t, err)

	store.On("GetPending", mock.Anything, 5).Return(nil, errors.New("timeout")).Once()

	_, err = p.PublishBatch(context.Background())
	require.Error(t, err)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestStart_StopsOnCancel(t *testing.T) {
	store := new(StoreMock)
	store.On("GetPending", mock.Anything, 1).Return([]postgres.OutboxRecord{}, nil).Maybe()

	p, err := NewPublisher(PublisherConfig{Store: store, Producer: new(ProducerMock), Interval: 5 * time.Millisecond, BatchSize: 1, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err = p.Start(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublishBatch_FailureBookkeepingErrorDoesNotStopBatch(t *testing.T) {
	store := new(StoreMock)
	producer := new(ProducerMock)
	p, err := NewPublisher(PublisherConfig{Store: store, Producer: producer, Interval: time.Second, BatchSize: 2, Logger: zerolog.Nop()})
	require.NoError(t, err)

	first, second := uuid.New(), uuid.New()
	store.On("GetPending", mock.Anything, 2).Return([]postgres.OutboxRecord{
		{ID: 10, EventID: first},
		{ID: 11, EventID: second},
	}, nil).Once()
	producer.On("Publish", mock.Anything, first.String(), mock.Anything).Return(errors.New("timeout")).Once()
	producer.On("Publish", mock.Anything, second.String(), mock.Anything).Return(nil).Once()
	store.On("MarkFailed", mock.Anything, int64(10), mock.Anything).Return(errors.New("db gone")).Once()
	store.On("MarkProcessed", mock.Anything, int64(11)).Return(nil).Once()

	res, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Total: 2, Published: 1, Failed: 1, Marked: 1}, res)
	store.AssertExpectations(t)
	producer.AssertExpectations(t)
}
