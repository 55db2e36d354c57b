package handler

import (
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/api/response"
)

const fallbackErrorMessage = "failed to process request"

// statusCoder is implemented by errors that choose their HTTP status
type statusCoder interface {
	HTTPStatus() int
}

// writeError is the single boundary for request-path failures. Errors
// without a status are reported as 400.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().
		Err(err).
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("Request failed")

	status := http.StatusBadRequest
	var sc statusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() != 0 {
		status = sc.HTTPStatus()
	}

	message := err.Error()
	if message == "" {
		message = fallbackErrorMessage
	}

	response.Error(w, status, message)
}
