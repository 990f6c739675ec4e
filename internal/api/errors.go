package api

import (
	"errors"
	"net/http"

	"github.com/solace-labs/solace-memory/internal/api/respond"
	"github.com/solace-labs/solace-memory/internal/model"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Infrastructure failures never reach here; the failover router contains them.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
