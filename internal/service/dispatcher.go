package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

// EventHandler processes the payload of one gateway event kind
type EventHandler func(ctx context.Context, instance string, data json.RawMessage) error

// Dispatcher routes gateway events to their lifecycle handler
type Dispatcher struct {
	handlers map[string]EventHandler
}

// NewDispatcher creates a dispatcher with the fixed event table
func NewDispatcher(instances *InstanceService, chats *ChatService) *Dispatcher {
	return &Dispatcher{
		handlers: map[string]EventHandler{
			domain.EventConnectionUpdate: func(ctx context.Context, instance string, data json.RawMessage) error {
				var payload domain.ConnectionUpdateData
				if err := decode(data, &payload); err != nil {
					return err
				}
				return instances.ConnectionUpdate(ctx, instance, payload)
			},
			domain.EventLogoutInstance: func(ctx context.Context, instance string, _ json.RawMessage) error {
				return instances.LogoutInstance(ctx, instance)
			},
			domain.EventRemoveInstance: func(ctx context.Context, instance string, _ json.RawMessage) error {
				return instances.RemoveInstance(ctx, instance)
			},
			domain.EventMessagesUpsert: func(ctx context.Context, instance string, data json.RawMessage) error {
				var payload domain.MessageUpsertData
				if err := decode(data, &payload); err != nil {
					return err
				}
				return chats.UpsertMessage(ctx, instance, payload)
			},
		},
	}
}

// Handles reports whether the event kind has a handler
func (d *Dispatcher) Handles(event string) bool {
	_, ok := d.handlers[event]
	return ok
}

// Dispatch runs the handler for ev. Unknown kinds are ignored. Handler
// errors and panics are logged and never propagate.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.WebhookEvent) {
	handler, ok := d.handlers[ev.Event]
	if !ok {
		log.Debug().Str("event", ev.Event).Str("instance", ev.Instance).Msg("Ignoring unhandled event")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("event", ev.Event).
				Str("instance", ev.Instance).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()

	if err := handler(ctx, ev.Instance, ev.Data); err != nil {
		log.Warn().
			Err(err).
			Str("event", ev.Event).
			Str("instance", ev.Instance).
			Msg("Failed to process event")
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid event payload: %w", err)
	}
	return nil
}
