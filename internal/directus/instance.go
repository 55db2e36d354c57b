package directus

import (
	"context"
	"net/http"
	"net/url"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

const instancesPath = "/items/instances"

// InstanceRepository implements domain.InstanceRepository over the instances collection
type InstanceRepository struct {
	client *Client
}

var _ domain.InstanceRepository = (*InstanceRepository)(nil)

// Create inserts a new instance record
func (r *InstanceRepository) Create(ctx context.Context, input domain.InstanceCreate) (*domain.Instance, error) {
	var instance domain.Instance
	err := r.client.do(ctx, request{method: http.MethodPost, path: instancesPath, body: input}, &instance)
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// Update applies a partial update to the instance with the given key
func (r *InstanceRepository) Update(ctx context.Context, id domain.RecordID, update domain.InstanceUpdate) (*domain.Instance, error) {
	var instance domain.Instance
	path := instancesPath + "/" + url.PathEscape(id.String())
	err := r.client.do(ctx, request{method: http.MethodPatch, path: path, body: update}, &instance)
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// ListByUser returns the instances owned by userID, oldest first
func (r *InstanceRepository) ListByUser(ctx context.Context, userID string) ([]domain.Instance, error) {
	return r.list(ctx, equalityFilter("user_id", userID))
}

// ListByEvolutionID returns the instances bound to a gateway session, oldest first
func (r *InstanceRepository) ListByEvolutionID(ctx context.Context, evolutionID string) ([]domain.Instance, error) {
	return r.list(ctx, equalityFilter("evolution_id", evolutionID))
}

func (r *InstanceRepository) list(ctx context.Context, query url.Values) ([]domain.Instance, error) {
	instances := []domain.Instance{}
	err := r.client.do(ctx, request{method: http.MethodGet, path: instancesPath, query: query}, &instances)
	if err != nil {
		return nil, err
	}
	return instances, nil
}
