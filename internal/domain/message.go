package domain

import (
	"context"
)

// MessageRole represents the sender of a chat turn
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatTurn represents one text message exchanged on an instance's conversation
type ChatTurn struct {
	ID          RecordID    `json:"id"`
	AgentID     *string     `json:"agent_id,omitempty"`
	ChatID      string      `json:"chat_id"`
	InstanceID  RecordID    `json:"instance_id"`
	Role        MessageRole `json:"role"`
	Content     string      `json:"content"`
	IsFromHuman bool        `json:"isFromHuman"`
}

// ChatTurnCreate represents the fields of a new chat history record.
// IsFromHuman is only sent for messages typed on the paired device.
type ChatTurnCreate struct {
	AgentID     string      `json:"agent_id,omitempty"`
	ChatID      string      `json:"chat_id"`
	InstanceID  RecordID    `json:"instance_id"`
	Role        MessageRole `json:"role"`
	Content     string      `json:"content"`
	IsFromHuman bool        `json:"isFromHuman,omitempty"`
}

// ChatHistoryRepository defines the interface for chat history storage
type ChatHistoryRepository interface {
	Create(ctx context.Context, input ChatTurnCreate) (*ChatTurn, error)
}
