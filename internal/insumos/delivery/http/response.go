package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/pkg/logger"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// retryAfterSeconds is advertised with 503 replies caused by lock waits.
const retryAfterSeconds = 1

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Logger.Debug().Err(err).Msg("Failed to write response")
	}
}

func respondOK(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// respondError writes the public form of err. Internal causes are logged and
// never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	ctx := r.Context()

	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		logger.Error(ctx).Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	case status == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		logger.Warn(ctx).Err(err).Str("path", r.URL.Path).Msg("Request hit a busy resource")
	default:
		logger.Debug(ctx).Err(err).Int("status", status).Msg("Request rejected")
	}

	respondJSON(w, status, Response{
		Success: false,
		Error:   domain.PublicMessage(err),
		Code:    domain.ReasonOf(err),
	})
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("request body is required")
		}
		return domain.Validation("invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil || id == 0 {
		return 0, domain.Validation("invalid %s", name)
	}
	return uint(id), nil
}
