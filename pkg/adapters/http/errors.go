package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/tools"
)

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("bad request")

// errorBody is the payload of every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusOf maps engine errors to HTTP statuses. Anything unrecognised is
// a failure of a completion handler or backing service.
func statusOf(err error) (int, string) {
	var verr *schema.ValidationError
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, formwork.ErrFlowNotFound),
		errors.Is(err, formwork.ErrResourceNotFound),
		errors.Is(err, formwork.ErrUnknownFeature),
		errors.Is(err, formwork.ErrUnknownScope),
		errors.Is(err, tools.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, formwork.ErrStale):
		return http.StatusConflict, "stale"
	case errors.Is(err, formwork.ErrCompleted):
		return http.StatusConflict, "completed"
	case errors.Is(err, formwork.ErrInvalidField),
		errors.Is(err, formwork.ErrInvalidInput),
		errors.Is(err, formwork.ErrInvalidFilter),
		errors.Is(err, formwork.ErrNotCreateFeature),
		errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "invalid"
	default:
		return http.StatusBadGateway, "upstream"
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "status", status, "err", err)
	} else {
		logger.Debug("Request rejected", "status", status, "err", err)
	}
	writeJSON(w, logger, status, errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
