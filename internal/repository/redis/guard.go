package redis

import (
	"context"
	"fmt"
	"time"
)

const (
	messageGuardPrefix = "msg:"
	messageGuardTTL    = 24 * time.Hour
)

// MessageGuard remembers gateway message ids so a redelivered
// messages.upsert is only persisted once
type MessageGuard struct {
	client *Client
	ttl    time.Duration
}

// NewMessageGuard creates a new message guard
func NewMessageGuard(client *Client) *MessageGuard {
	return &MessageGuard{client: client, ttl: messageGuardTTL}
}

// Claim returns true the first time a message id is seen for an instance
func (g *MessageGuard) Claim(ctx context.Context, instance, messageID string) (bool, error) {
	key := fmt.Sprintf("%s%s:%s", messageGuardPrefix, instance, messageID)
	claimed, err := g.client.rdb.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim message: %w", err)
	}
	return claimed, nil
}

// Release forgets a message id so the next delivery is processed again
func (g *MessageGuard) Release(ctx context.Context, instance, messageID string) error {
	key := fmt.Sprintf("%s%s:%s", messageGuardPrefix, instance, messageID)
	return g.client.rdb.Del(ctx, key).Err()
}
