package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/api/response"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

const maxWebhookBody = 5 << 20

var validate = validator.New()

// EventQueue accepts events for background processing
type EventQueue interface {
	Enqueue(ev domain.WebhookEvent)
}

// WebhookHandler receives gateway events
type WebhookHandler struct {
	queue EventQueue
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(queue EventQueue) *WebhookHandler {
	return &WebhookHandler{queue: queue}
}

// Receive acknowledges the gateway immediately and hands the event to the
// queue. The outcome of processing is never reported back to the caller.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var ev domain.WebhookEvent
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&ev)

	response.Ack(w)

	if err != nil {
		log.Warn().Err(err).Msg("Discarding malformed webhook body")
		return
	}
	if err := validate.Struct(ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Event).Str("instance", ev.Instance).Msg("Discarding invalid webhook event")
		return
	}

	h.queue.Enqueue(ev)
}
