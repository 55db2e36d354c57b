package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// InstanceTypeWhatsApp is the only instance type this bridge provisions
const InstanceTypeWhatsApp = "whatsapp"

// RecordID is a record-store primary key. Directus returns integer or
// string keys depending on the collection, both are kept as text.
type RecordID string

// UnmarshalJSON accepts both JSON numbers and strings
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid record id %s: %w", data, err)
	}
	*id = RecordID(n.String())
	return nil
}

func (id RecordID) String() string {
	return string(id)
}

// Instance is a gateway-side messaging session bound to one application user
type Instance struct {
	ID          RecordID `json:"id"`
	Type        string   `json:"type"`
	EvolutionID *string  `json:"evolution_id"`
	UserID      string   `json:"user_id"`
	IsConnected bool     `json:"is_connected"`
	Name        *string  `json:"name"`
}

// HasSession reports whether the record is still bound to a gateway session.
// Records soft-reset by a removal event keep their key but lose the binding.
func (i *Instance) HasSession() bool {
	return i.EvolutionID != nil && *i.EvolutionID != ""
}

// InstanceCreate represents the fields of a new instance record
type InstanceCreate struct {
	Type        string `json:"type"`
	EvolutionID string `json:"evolution_id"`
	UserID      string `json:"user_id"`
}

// NullString is a nullable text field of a partial update
type NullString struct {
	String string
	Valid  bool
}

// NewNullString returns a valid NullString holding s
func NewNullString(s string) *NullString {
	return &NullString{String: s, Valid: true}
}

// Null returns a NullString that clears the field
func Null() *NullString {
	return &NullString{}
}

func (n NullString) value() any {
	if !n.Valid {
		return nil
	}
	return n.String
}

// InstanceUpdate is a partial update. Nil fields are left untouched.
type InstanceUpdate struct {
	IsConnected *bool
	EvolutionID *NullString
	Name        *NullString
}

// Fields returns the update as a record-store payload
func (u InstanceUpdate) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if u.IsConnected != nil {
		fields["is_connected"] = *u.IsConnected
	}
	if u.EvolutionID != nil {
		fields["evolution_id"] = u.EvolutionID.value()
	}
	if u.Name != nil {
		fields["name"] = u.Name.value()
	}
	return fields
}

// MarshalJSON encodes only the fields that are set
func (u InstanceUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Fields())
}

// PrimaryInstance applies the single-instance policy: a user owns at most one
// meaningful instance, so only the first record (lowest primary key, as
// returned by the id-sorted lookups) is considered.
func PrimaryInstance(instances []Instance) (*Instance, bool) {
	if len(instances) == 0 {
		return nil, false
	}
	return &instances[0], true
}

// InstanceRepository defines the interface for instance storage
type InstanceRepository interface {
	Create(ctx context.Context, input InstanceCreate) (*Instance, error)
	Update(ctx context.Context, id RecordID, update InstanceUpdate) (*Instance, error)
	ListByUser(ctx context.Context, userID string) ([]Instance, error)
	ListByEvolutionID(ctx context.Context, evolutionID string) ([]Instance, error)
}

// ProvisionedInstance is the gateway's answer to a create-instance call
type ProvisionedInstance struct {
	InstanceID   string          `json:"instanceId"`
	InstanceName string          `json:"instanceName"`
	QRCode       json.RawMessage `json:"qrcode,omitempty"`
}

// Gateway defines the messaging gateway operations used by the bridge
type Gateway interface {
	CreateInstance(ctx context.Context, name string) (*ProvisionedInstance, error)
	Connect(ctx context.Context, name string) (json.RawMessage, error)
}
