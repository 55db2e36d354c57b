package directus

import (
	"context"
	"net/http"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

const chatHistoriesPath = "/items/chat_histories"

// ChatHistoryRepository implements domain.ChatHistoryRepository
type ChatHistoryRepository struct {
	client *Client
}

var _ domain.ChatHistoryRepository = (*ChatHistoryRepository)(nil)

// Create inserts a chat turn
func (r *ChatHistoryRepository) Create(ctx context.Context, input domain.ChatTurnCreate) (*domain.ChatTurn, error) {
	var turn domain.ChatTurn
	err := r.client.do(ctx, request{method: http.MethodPost, path: chatHistoriesPath, body: input}, &turn)
	if err != nil {
		return nil, err
	}
	return &turn, nil
}
