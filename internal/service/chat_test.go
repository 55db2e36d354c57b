package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

type chatFixture struct {
	svc       *ChatService
	instances *MockInstanceRepository
	histories *MockChatHistoryRepository
	guard     *MockMessageGuard
}

func newChatFixture(withGuard bool, agentID string) *chatFixture {
	f := &chatFixture{
		instances: new(MockInstanceRepository),
		histories: new(MockChatHistoryRepository),
		guard:     new(MockMessageGuard),
	}
	instanceSvc := NewInstanceService(f.instances, new(MockGateway))
	var guard MessageGuard
	if withGuard {
		guard = f.guard
	}
	f.svc = NewChatService(instanceSvc, f.histories, guard, agentID)
	return f
}

func textMessage(remoteJID string, fromMe bool, text string) domain.MessageUpsertData {
	return domain.MessageUpsertData{
		Key:         domain.MessageKey{RemoteJID: remoteJID, FromMe: fromMe, ID: "3EB0ABC"},
		Message:     &domain.MessageContent{Conversation: text},
		MessageType: "conversation",
	}
}

func TestChatService_UpsertMessage(t *testing.T) {
	ctx := context.Background()
	bound := []domain.Instance{{ID: "9", EvolutionID: strPtr("X"), IsConnected: true}}

	t.Run("incoming message is a user turn", func(t *testing.T) {
		f := newChatFixture(false, "")
		f.instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		f.histories.On("Create", mock.Anything, domain.ChatTurnCreate{
			ChatID:     "5511888@s.whatsapp.net",
			InstanceID: "9",
			Role:       domain.RoleUser,
			Content:    "hi",
		}).Return(&domain.ChatTurn{ID: "1"}, nil)

		err := f.svc.UpsertMessage(ctx, "X", textMessage("5511888@s.whatsapp.net", false, "hi"))
		require.NoError(t, err)
		f.histories.AssertExpectations(t)
	})

	t.Run("own message is a human assistant turn", func(t *testing.T) {
		f := newChatFixture(false, "agent-1")
		f.instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		f.histories.On("Create", mock.Anything, domain.ChatTurnCreate{
			AgentID:     "agent-1",
			ChatID:      "5511888@s.whatsapp.net",
			InstanceID:  "9",
			Role:        domain.RoleAssistant,
			Content:     "hello",
			IsFromHuman: true,
		}).Return(&domain.ChatTurn{ID: "2"}, nil)

		err := f.svc.UpsertMessage(ctx, "X", textMessage("5511888@s.whatsapp.net", true, "hello"))
		require.NoError(t, err)
		f.histories.AssertExpectations(t)
	})

	t.Run("extended text is recorded", func(t *testing.T) {
		f := newChatFixture(false, "")
		f.instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		f.histories.On("Create", mock.Anything, mock.MatchedBy(func(in domain.ChatTurnCreate) bool {
			return in.Content == "see this" && in.Role == domain.RoleUser
		})).Return(&domain.ChatTurn{ID: "3"}, nil)

		msg := textMessage("5511888@s.whatsapp.net", false, "")
		msg.Message = &domain.MessageContent{ExtendedTextMessage: &domain.ExtendedTextMessage{Text: "see this"}}

		require.NoError(t, f.svc.UpsertMessage(ctx, "X", msg))
		f.histories.AssertExpectations(t)
	})

	t.Run("group chat is ignored", func(t *testing.T) {
		f := newChatFixture(false, "")
		f.instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)

		err := f.svc.UpsertMessage(ctx, "X", textMessage("120363@g.us", false, "hi all"))
		require.NoError(t, err)
		f.histories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non-text message is ignored", func(t *testing.T) {
		f := newChatFixture(false, "")
		f.instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)

		msg := textMessage("5511888@s.whatsapp.net", false, "")
		msg.Message = nil
		msg.MessageType = "imageMessage"

		require.NoError(t, f.svc.UpsertMessage(ctx, "X", msg))
		f.histories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown instance is ignored", func(t *testing.T) {
		f := newChatFixture(false, "")
		f.instances.On("ListByEvolutionID", mock.Anything, "Y").Return([]domain.Instance{}, nil)

		err := f.svc.UpsertMessage(ctx, "Y", textMessage("5511888@s.whatsapp.net", false, "hi"))
		require.NoError(t, err)
		f.histories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("redelivered message is stored once", func(t *testing.T) {
		f := newChatFixture(true, "")
		f.instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		f.guard.On("Claim", mock.Anything, "X", "3EB0ABC").Return(true, nil).Once()
		f.guard.On("Claim", mock.Anything, "X", "3EB0ABC").Return(false, nil)
		f.histories.On("Create", mock.Anything, mock.Anything).Return(&domain.ChatTurn{ID: "1"}, nil)

		msg := textMessage("5511888@s.whatsapp.net", false, "hi")
		require.NoError(t, f.svc.UpsertMessage(ctx, "X", msg))
		require.NoError(t, f.svc.UpsertMessage(ctx, "X", msg))

		f.histories.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("guard failure does not block persistence", func(t *testing.T) {
		f := newChatFixture(true, "")
		f.instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		f.guard.On("Claim", mock.Anything, "X", "3EB0ABC").Return(false, errors.New("redis down"))
		f.histories.On("Create", mock.Anything, mock.Anything).Return(&domain.ChatTurn{ID: "1"}, nil)

		require.NoError(t, f.svc.UpsertMessage(ctx, "X", textMessage("5511888@s.whatsapp.net", false, "hi")))
		f.histories.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("failed write releases the claim", func(t *testing.T) {
		f := newChatFixture(true, "")
		f.instances.On("ListByEvolutionID", mock.Anything, "X").Return(bound, nil)
		f.guard.On("Claim", mock.Anything, "X", "3EB0ABC").Return(true, nil)
		f.guard.On("Release", mock.Anything, "X", "3EB0ABC").Return(nil)
		f.histories.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		err := f.svc.UpsertMessage(ctx, "X", textMessage("5511888@s.whatsapp.net", false, "hi"))
		assert.EqualError(t, err, "failed to save user message: boom")
		f.guard.AssertExpectations(t)
	})
}
