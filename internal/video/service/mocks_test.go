package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Create(ctx context.Context, v *models.Video) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *StoreMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) ListByStatus(ctx context.Context, status domain.Status) ([]models.Video, error) {
	args := m.Called(ctx, status)
	if v := args.Get(0); v != nil {
		return v.([]models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) Transition(ctx context.Context, ev *models.VideoStatusChanged) (*models.Video, error) {
	args := m.Called(ctx, ev)
	if v := args.Get(0); v != nil {
		return v.(*models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

type AssetsMock struct {
	mock.Mock
}

func (m *AssetsMock) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	args := m.Called(ctx, key, r)
	return args.String(0), args.Error(1)
}
