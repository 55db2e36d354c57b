package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

func newTestDispatcher() (*Dispatcher, *MockInstanceRepository, *MockChatHistoryRepository) {
	instances := new(MockInstanceRepository)
	histories := new(MockChatHistoryRepository)
	instanceSvc := NewInstanceService(instances, new(MockGateway))
	chatSvc := NewChatService(instanceSvc, histories, nil, "")
	return NewDispatcher(instanceSvc, chatSvc), instances, histories
}

func TestDispatcher_Handles(t *testing.T) {
	d, _, _ := newTestDispatcher()

	assert.True(t, d.Handles(domain.EventConnectionUpdate))
	assert.True(t, d.Handles(domain.EventLogoutInstance))
	assert.True(t, d.Handles(domain.EventRemoveInstance))
	assert.True(t, d.Handles(domain.EventMessagesUpsert))
	assert.False(t, d.Handles(domain.EventQRCodeUpdated))
	assert.False(t, d.Handles("contacts.update"))
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()
	bound := []domain.Instance{{ID: "1", EvolutionID: strPtr("X")}}

	t.Run("unhandled event touches nothing", func(t *testing.T) {
		d, instances, histories := newTestDispatcher()

		d.Dispatch(ctx, domain.WebhookEvent{Event: domain.EventQRCodeUpdated, Instance: "X"})

		instances.AssertNotCalled(t, "ListByEvolutionID", mock.Anything, mock.Anything)
		histories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("connection update", func(t *testing.T) {
		d, instances, _ := newTestDispatcher()
		instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		instances.On("Update", mock.Anything, domain.RecordID("1"), updateWith(map[string]any{
			"is_connected": true,
			"name":         "5511999",
		})).Return(&domain.Instance{ID: "1"}, nil)

		d.Dispatch(ctx, domain.WebhookEvent{
			Event:    domain.EventConnectionUpdate,
			Instance: "X",
			Data:     json.RawMessage(`{"instance":"X","state":"open","wuid":"5511999@s.whatsapp.net","statusReason":200}`),
		})

		instances.AssertExpectations(t)
	})

	t.Run("logout", func(t *testing.T) {
		d, instances, _ := newTestDispatcher()
		instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		instances.On("Update", mock.Anything, domain.RecordID("1"), updateWith(map[string]any{
			"is_connected": false,
		})).Return(&domain.Instance{ID: "1"}, nil)

		d.Dispatch(ctx, domain.WebhookEvent{Event: domain.EventLogoutInstance, Instance: "X"})

		instances.AssertExpectations(t)
	})

	t.Run("remove", func(t *testing.T) {
		d, instances, _ := newTestDispatcher()
		instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		instances.On("Update", mock.Anything, domain.RecordID("1"), updateWith(map[string]any{
			"is_connected": false,
			"evolution_id": nil,
			"name":         nil,
		})).Return(&domain.Instance{ID: "1"}, nil)

		d.Dispatch(ctx, domain.WebhookEvent{Event: domain.EventRemoveInstance, Instance: "X", Data: json.RawMessage(`null`)})

		instances.AssertExpectations(t)
	})

	t.Run("message upsert", func(t *testing.T) {
		d, instances, histories := newTestDispatcher()
		instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		histories.On("Create", mock.Anything, domain.ChatTurnCreate{
			ChatID:     "5511888@s.whatsapp.net",
			InstanceID: "1",
			Role:       domain.RoleUser,
			Content:    "hi",
		}).Return(&domain.ChatTurn{ID: "5"}, nil)

		d.Dispatch(ctx, domain.WebhookEvent{
			Event:    domain.EventMessagesUpsert,
			Instance: "X",
			Data: json.RawMessage(`{
				"key": {"remoteJid": "5511888@s.whatsapp.net", "fromMe": false, "id": "ABC"},
				"pushName": "Ana",
				"message": {"conversation": "hi"},
				"messageType": "conversation"
			}`),
		})

		histories.AssertExpectations(t)
	})

	t.Run("invalid payload is dropped", func(t *testing.T) {
		d, instances, _ := newTestDispatcher()

		assert.NotPanics(t, func() {
			d.Dispatch(ctx, domain.WebhookEvent{
				Event:    domain.EventConnectionUpdate,
				Instance: "X",
				Data:     json.RawMessage(`"not an object"`),
			})
		})
		instances.AssertNotCalled(t, "ListByEvolutionID", mock.Anything, mock.Anything)
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		d := &Dispatcher{handlers: map[string]EventHandler{
			"boom": func(context.Context, string, json.RawMessage) error {
				panic("handler exploded")
			},
		}}

		assert.NotPanics(t, func() {
			d.Dispatch(ctx, domain.WebhookEvent{Event: "boom", Instance: "X"})
		})
	})
}
