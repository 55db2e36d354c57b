package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

// InstanceService owns the binding between users, gateway sessions and
// their connection state
type InstanceService struct {
	instances domain.InstanceRepository
	gateway   domain.Gateway
	newName   func() string
}

// NewInstanceService creates a new instance service
func NewInstanceService(instances domain.InstanceRepository, gateway domain.Gateway) *InstanceService {
	return &InstanceService{
		instances: instances,
		gateway:   gateway,
		newName:   randomSessionName,
	}
}

func randomSessionName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetQRCodeToConnect returns the pairing payload for the user's instance,
// provisioning a gateway session first if the user has none.
func (s *InstanceService) GetQRCodeToConnect(ctx context.Context, userID string) (json.RawMessage, error) {
	instances, err := s.instances.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	instance, ok := domain.PrimaryInstance(instances)
	if !ok {
		return s.provision(ctx, userID, nil)
	}

	if instance.IsConnected {
		return nil, domain.ErrAlreadyConnected
	}

	// A removed session leaves the record behind with no gateway binding
	if !instance.HasSession() {
		return s.provision(ctx, userID, instance)
	}

	body, err := s.gateway.Connect(ctx, *instance.EvolutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect instance: %w", err)
	}
	return body, nil
}

// provision creates a gateway session and binds it to existing, or to a new
// record when existing is nil
func (s *InstanceService) provision(ctx context.Context, userID string, existing *domain.Instance) (json.RawMessage, error) {
	name := s.newName()

	provisioned, err := s.gateway.CreateInstance(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway instance: %w", err)
	}

	if existing == nil {
		_, err = s.instances.Create(ctx, domain.InstanceCreate{
			Type:        domain.InstanceTypeWhatsApp,
			EvolutionID: name,
			UserID:      userID,
		})
	} else {
		_, err = s.instances.Update(ctx, existing.ID, domain.InstanceUpdate{
			IsConnected: boolPtr(false),
			EvolutionID: domain.NewNullString(name),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save instance: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("instance", name).
		Bool("rebound", existing != nil).
		Msg("Provisioned gateway instance")

	return provisioned.QRCode, nil
}

// ConnectionUpdate mirrors the gateway's session state onto the instance
func (s *InstanceService) ConnectionUpdate(ctx context.Context, evolutionID string, data domain.ConnectionUpdateData) error {
	instance, err := s.resolve(ctx, evolutionID)
	if err != nil || instance == nil {
		return err
	}

	update := domain.InstanceUpdate{
		IsConnected: boolPtr(data.State == domain.ConnectionStateOpen),
		Name:        domain.Null(),
	}
	if phone, ok := domain.PhoneFromWUID(data.WUID); ok {
		update.Name = domain.NewNullString(phone)
	}

	if _, err := s.instances.Update(ctx, instance.ID, update); err != nil {
		return fmt.Errorf("failed to update connection state: %w", err)
	}
	return nil
}

// LogoutInstance marks the instance as disconnected, keeping its binding
func (s *InstanceService) LogoutInstance(ctx context.Context, evolutionID string) error {
	instance, err := s.resolve(ctx, evolutionID)
	if err != nil || instance == nil {
		return err
	}

	if _, err := s.instances.Update(ctx, instance.ID, domain.InstanceUpdate{IsConnected: boolPtr(false)}); err != nil {
		return fmt.Errorf("failed to logout instance: %w", err)
	}
	return nil
}

// RemoveInstance soft-resets the instance: the record is kept but loses its
// gateway binding and display name
func (s *InstanceService) RemoveInstance(ctx context.Context, evolutionID string) error {
	instance, err := s.resolve(ctx, evolutionID)
	if err != nil || instance == nil {
		return err
	}

	update := domain.InstanceUpdate{
		IsConnected: boolPtr(false),
		EvolutionID: domain.Null(),
		Name:        domain.Null(),
	}
	if _, err := s.instances.Update(ctx, instance.ID, update); err != nil {
		return fmt.Errorf("failed to remove instance: %w", err)
	}
	return nil
}

// resolve finds the instance bound to a gateway session. Unknown sessions
// yield nil without error.
func (s *InstanceService) resolve(ctx context.Context, evolutionID string) (*domain.Instance, error) {
	if evolutionID == "" {
		return nil, nil
	}

	instances, err := s.instances.ListByEvolutionID(ctx, evolutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find instance: %w", err)
	}

	instance, ok := domain.PrimaryInstance(instances)
	if !ok {
		log.Debug().Str("instance", evolutionID).Msg("Ignoring event for unknown instance")
		return nil, nil
	}
	return instance, nil
}

func boolPtr(b bool) *bool {
	return &b
}
