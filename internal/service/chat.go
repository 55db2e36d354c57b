package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

// MessageGuard claims a gateway message id so redeliveries are persisted once
type MessageGuard interface {
	Claim(ctx context.Context, instance, messageID string) (bool, error)
	Release(ctx context.Context, instance, messageID string) error
}

// ChatService records text turns exchanged on paired instances
type ChatService struct {
	instances *InstanceService
	histories domain.ChatHistoryRepository
	guard     MessageGuard
	agentID   string
}

// NewChatService creates a new chat service. guard may be nil.
func NewChatService(instances *InstanceService, histories domain.ChatHistoryRepository, guard MessageGuard, agentID string) *ChatService {
	return &ChatService{
		instances: instances,
		histories: histories,
		guard:     guard,
		agentID:   agentID,
	}
}

// UpsertMessage persists one direct-chat text message. Messages sent from the
// paired device are stored as human-typed assistant turns.
func (s *ChatService) UpsertMessage(ctx context.Context, evolutionID string, data domain.MessageUpsertData) error {
	instance, err := s.instances.resolve(ctx, evolutionID)
	if err != nil || instance == nil {
		return err
	}

	text := data.Text()
	if text == "" {
		log.Debug().
			Str("instance", evolutionID).
			Str("message_type", data.MessageType).
			Msg("Skipping non-text message")
		return nil
	}

	jid := domain.ParseJID(data.Key.RemoteJID)
	if !jid.IsDirect() {
		return nil
	}

	if !s.claim(ctx, evolutionID, data.Key.ID) {
		log.Debug().Str("instance", evolutionID).Str("message_id", data.Key.ID).Msg("Skipping redelivered message")
		return nil
	}

	turn := domain.ChatTurnCreate{
		AgentID:    s.agentID,
		ChatID:     data.Key.RemoteJID,
		InstanceID: instance.ID,
		Role:       domain.RoleUser,
		Content:    text,
	}
	if data.Key.FromMe {
		turn.Role = domain.RoleAssistant
		turn.IsFromHuman = true
	}

	if _, err := s.histories.Create(ctx, turn); err != nil {
		s.release(ctx, evolutionID, data.Key.ID)
		return fmt.Errorf("failed to save %s message: %w", turn.Role, err)
	}
	return nil
}

// claim fails open: without a guard, or when the guard errors, the message is
// treated as new
func (s *ChatService) claim(ctx context.Context, evolutionID, messageID string) bool {
	if s.guard == nil || messageID == "" {
		return true
	}
	claimed, err := s.guard.Claim(ctx, evolutionID, messageID)
	if err != nil {
		log.Warn().Err(err).Str("instance", evolutionID).Msg("Message guard unavailable")
		return true
	}
	return claimed
}

func (s *ChatService) release(ctx context.Context, evolutionID, messageID string) {
	if s.guard == nil || messageID == "" {
		return
	}
	if err := s.guard.Release(ctx, evolutionID, messageID); err != nil {
		log.Warn().Err(err).Str("instance", evolutionID).Msg("Failed to release message claim")
	}
}
