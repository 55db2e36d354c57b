package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/api/response"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

type contextKey string

const UserKey contextKey = "user"

// AuthMiddleware validates bearer tokens against the record store
type AuthMiddleware struct {
	users domain.UserDirectory
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(users domain.UserDirectory) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// Authenticate resolves the bearer token to a user. A missing token or an
// unknown user is a 404, any other failure a 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeAuthError(w, domain.ErrTokenMissing)
			return
		}

		user, err := m.users.Me(r.Context(), token)
		if err != nil {
			log.Debug().Err(err).Msg("Token rejected by record store")
			writeAuthError(w, domain.NewUnauthorized(err))
			return
		}
		if user == nil || user.ID == "" {
			writeAuthError(w, domain.ErrUserNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUser gets the authenticated user from context
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}

// bearerToken returns the credential part of "Bearer <token>"
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func writeAuthError(w http.ResponseWriter, err *domain.AuthError) {
	response.Error(w, err.Status, err.Message)
}
