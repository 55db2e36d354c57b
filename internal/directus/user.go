package directus

import (
	"context"
	"net/http"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

// UserDirectory resolves access tokens to Directus users
type UserDirectory struct {
	client *Client
}

var _ domain.UserDirectory = (*UserDirectory)(nil)

// Me returns the user owning token, or nil when Directus answers with no user
func (d *UserDirectory) Me(ctx context.Context, token string) (*domain.User, error) {
	var user *domain.User
	err := d.client.do(ctx, request{method: http.MethodGet, path: "/users/me", token: token}, &user)
	if err != nil {
		return nil, err
	}
	return user, nil
}
