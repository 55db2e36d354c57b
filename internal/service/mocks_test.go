package service

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

// MockInstanceRepository mocks domain.InstanceRepository
type MockInstanceRepository struct {
	mock.Mock
}

func (m *MockInstanceRepository) Create(ctx context.Context, input domain.InstanceCreate) (*domain.Instance, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instance), args.Error(1)
}

func (m *MockInstanceRepository) Update(ctx context.Context, id domain.RecordID, update domain.InstanceUpdate) (*domain.Instance, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instance), args.Error(1)
}

func (m *MockInstanceRepository) ListByUser(ctx context.Context, userID string) ([]domain.Instance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Instance), args.Error(1)
}

func (m *MockInstanceRepository) ListByEvolutionID(ctx context.Context, evolutionID string) ([]domain.Instance, error) {
	args := m.Called(ctx, evolutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Instance), args.Error(1)
}

// MockChatHistoryRepository mocks domain.ChatHistoryRepository
type MockChatHistoryRepository struct {
	mock.Mock
}

func (m *MockChatHistoryRepository) Create(ctx context.Context, input domain.ChatTurnCreate) (*domain.ChatTurn, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatTurn), args.Error(1)
}

// MockGateway mocks domain.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateInstance(ctx context.Context, name string) (*domain.ProvisionedInstance, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisionedInstance), args.Error(1)
}

func (m *MockGateway) Connect(ctx context.Context, name string) (json.RawMessage, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockMessageGuard mocks MessageGuard
type MockMessageGuard struct {
	mock.Mock
}

func (m *MockMessageGuard) Claim(ctx context.Context, instance, messageID string) (bool, error) {
	args := m.Called(ctx, instance, messageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessageGuard) Release(ctx context.Context, instance, messageID string) error {
	args := m.Called(ctx, instance, messageID)
	return args.Error(0)
}

// updateWith matches an InstanceUpdate by the payload it produces
func updateWith(fields map[string]any) any {
	return mock.MatchedBy(func(u domain.InstanceUpdate) bool {
		return assert.ObjectsAreEqual(fields, u.Fields())
	})
}

func strPtr(s string) *string {
	return &s
}
