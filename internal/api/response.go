package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"wedding-invitation/internal/archive"
	"wedding-invitation/internal/portal"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/validation"
)

// Error codes returned in the error body.
const (
	CodeBadRequest       = "bad_request"
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeRSVPClosed       = "rsvp_closed"
	CodeNameRequired     = "name_required"
	CodeNotConfirmed     = "confirmation_required"
	CodeShareUnavailable = "share_unavailable"
	CodeShareFailed      = "share_failed"
	CodeInternal         = "internal_error"
)

// APIError is the error payload.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string, details any) {
	s.writeJSON(w, status, errorEnvelope{Error: APIError{Code: code, Message: message, Details: details}})
}

// handleError maps domain errors to HTTP responses.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, CodeValidation, "Invalid request", verr.Fields)
	case errors.Is(err, rsvp.ErrClosed):
		s.writeError(w, http.StatusConflict, CodeRSVPClosed, "RSVP is closed because the event has passed", nil)
	case errors.Is(err, rsvp.ErrNameRequired):
		s.writeError(w, http.StatusBadRequest, CodeNameRequired, err.Error(), nil)
	case errors.Is(err, archive.ErrNotFound):
		s.writeError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, portal.ErrNotConfirmed):
		s.writeError(w, http.StatusBadRequest, CodeNotConfirmed, err.Error(), nil)
	case errors.Is(err, portal.ErrUnknownField), errors.Is(err, portal.ErrInvalidValue):
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
		s.writeError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
	}
}

// decodeBody reads the request body into dest without validating it.
func decodeBody(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return &validation.Error{Fields: map[string]string{"body": "must be a valid JSON object"}}
	}
	return nil
}

// decodeJSON reads the request body into dest and validates it.
func (s *Server) decodeJSON(r *http.Request, dest any) error {
	if err := decodeBody(r, dest); err != nil {
		return err
	}
	return s.validator.Validate(dest)
}
