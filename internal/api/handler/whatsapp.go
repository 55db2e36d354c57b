package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/api/middleware"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/api/response"
)

// PairingService starts device pairing for a user
type PairingService interface {
	GetQRCodeToConnect(ctx context.Context, userID string) (json.RawMessage, error)
}

// WhatsAppHandler handles the user-facing pairing endpoint
type WhatsAppHandler struct {
	pairing PairingService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(pairing PairingService) *WhatsAppHandler {
	return &WhatsAppHandler{pairing: pairing}
}

// Connect returns the QR code or connect payload for the authenticated user
func (h *WhatsAppHandler) Connect(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "UNAUTHORIZED")
		return
	}

	payload, err := h.pairing.GetQRCodeToConnect(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Raw(w, http.StatusOK, payload)
}
