package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/velvetlabs/brandsso/internal/observability/logger"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError renders any error as the OAuth JSON error shape. Unknown error
// types become an opaque server_error; the cause only goes to the log.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var app *AppError
	if !stderrors.As(err, &app) {
		app = Internal(err)
	}

	log := logger.From(r.Context()).With(
		logger.Path(r.URL.Path),
		logger.String("error_code", string(app.Code)))
	if app.Status >= http.StatusInternalServerError {
		log.Error("request failed", logger.Err(err))
	} else {
		log.Debug("request rejected", logger.Err(err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(app.Status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error:       string(app.Code),
		Description: app.Description,
	})
}

// WriteJSON renders a success payload.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
