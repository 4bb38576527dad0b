package httpapp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/logger"
	"github.com/alphabot-ai/postboard/internal/store"

	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorBody(status int, message string) map[string]any {
	kind := "fail"
	if status >= http.StatusInternalServerError {
		kind = "error"
	}
	return map[string]any{
		"success": false,
		"status":  kind,
		"message": message,
	}
}

// writeError renders err with the status of its kind. Server faults are
// logged with their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(apperr.KindOf(err))
	rlog := logger.FromContext(r.Context()).WithField("status", status)
	if status >= http.StatusInternalServerError {
		rlog.WithError(errors.Unwrap(err)).Error(err.Error())
	} else {
		rlog.Debug(err.Error())
	}
	writeJSON(w, status, errorBody(status, err.Error()))
}

func writeRateLimit(w http.ResponseWriter, r *http.Request, retry time.Duration) {
	secs := int(math.Ceil(retry.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeError(w, r, apperr.New(apperr.TooManyRequests, "Too many requests, retry in %ds", secs))
}

// readBody returns the raw request body, capped at maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.BadRequest("request body exceeds %d bytes", maxBodyBytes)
		}
		return nil, apperr.Wrap(apperr.InvalidArgument, err, fmt.Sprintf("cannot read request body: %v", err))
	}
	return body, nil
}

// decodeBody reads r's body, validates it against schemaID and decodes it
// into dest.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, schemaID string, dest any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := s.validator.Validate(body, schemaID); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, err, "invalid JSON body")
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
