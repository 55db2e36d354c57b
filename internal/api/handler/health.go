package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/api/response"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
}

// HealthCheck reports that the process is running
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Timestamp: time.Now().UnixMilli(),
		Status:    "running",
	})
}

// Pinger checks a remote dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyCheck returns readiness status including record-store connectivity
func ReadyCheck(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Record store not ready")
			response.ServiceUnavailable(w, "record store not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
