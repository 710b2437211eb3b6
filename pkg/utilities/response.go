package utilities

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/apperr"
)

// ErrInvalidBody is returned by DecodeJSON for bodies that are not a JSON object.
var ErrInvalidBody = apperr.Validation("Invalid request body")

// MessageResponse is the body shape for errors and plain acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Message: msg})
}

// WriteError maps err to a status and message. Internal failures are logged
// with their cause and reported with fallback only.
func WriteError(w http.ResponseWriter, logger *zap.SugaredLogger, err error, fallback string) {
	if apperr.KindOf(err) == apperr.KindInternal && logger != nil {
		logger.Warnw("request failed", "err", err)
	}
	WriteMessage(w, apperr.StatusOf(err), apperr.MessageOf(err, fallback))
}

// DecodeJSON reads a single JSON value from r's body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrInvalidBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrInvalidBody
		}
		return &apperr.Error{Kind: apperr.KindValidation, Message: ErrInvalidBody.Message, Err: err}
	}
	return nil
}
