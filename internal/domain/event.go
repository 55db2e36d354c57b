package domain

import "encoding/json"

// Gateway event kinds as delivered in the webhook envelope
const (
	EventConnectionUpdate = "connection.update"
	EventLogoutInstance   = "logout.instance"
	EventRemoveInstance   = "remove.instance"
	EventMessagesUpsert   = "messages.upsert"
	EventQRCodeUpdated    = "qrcode.updated"
)

// Webhook subscription names registered at the gateway
var WebhookSubscriptions = []string{
	"CONNECTION_UPDATE",
	"LOGOUT_INSTANCE",
	"MESSAGES_UPSERT",
	"QRCODE_UPDATED",
	"REMOVE_INSTANCE",
}

// WebhookEvent is the envelope the gateway posts for every event
type WebhookEvent struct {
	Event    string          `json:"event" validate:"required"`
	Instance string          `json:"instance" validate:"required"`
	Data     json.RawMessage `json:"data"`
}

// ConnectionState values reported by the gateway
const ConnectionStateOpen = "open"

// ConnectionUpdateData is the payload of a connection.update event
type ConnectionUpdateData struct {
	Instance     string `json:"instance"`
	State        string `json:"state"`
	WUID         string `json:"wuid,omitempty"`
	StatusReason int    `json:"statusReason,omitempty"`
}

// MessageKey identifies a message within a conversation
type MessageKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// ExtendedTextMessage carries text sent with a reply or link preview
type ExtendedTextMessage struct {
	Text string `json:"text"`
}

// MessageContent is the subset of message bodies the bridge understands
type MessageContent struct {
	Conversation        string               `json:"conversation,omitempty"`
	ExtendedTextMessage *ExtendedTextMessage `json:"extendedTextMessage,omitempty"`
}

// MessageUpsertData is the payload of a messages.upsert event
type MessageUpsertData struct {
	Key         MessageKey      `json:"key"`
	PushName    string          `json:"pushName,omitempty"`
	Message     *MessageContent `json:"message"`
	MessageType string          `json:"messageType,omitempty"`
}

// Text returns the plain-text content of the message, if any
func (d MessageUpsertData) Text() string {
	if d.Message == nil {
		return ""
	}
	if d.Message.Conversation != "" {
		return d.Message.Conversation
	}
	if d.Message.ExtendedTextMessage != nil {
		return d.Message.ExtendedTextMessage.Text
	}
	return ""
}
