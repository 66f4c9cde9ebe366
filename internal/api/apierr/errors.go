package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/votingroom/internal/model"
)

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Error codes
const (
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInvalidState       = "INVALID_STATE"
	CodeEmptyRoom          = "EMPTY_ROOM"
	CodeInvalidPlayerIndex = "INVALID_PLAYER_INDEX"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeRoomAlreadyExists  = "ROOM_ALREADY_EXISTS"
	CodeVersionConflict    = "VERSION_CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeRequestCancelled   = "REQUEST_CANCELLED"
	CodeServerError        = "SERVER_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
)

// httpError combines an HTTP status code with a code and message
type httpError struct {
	status  int
	code    string
	message string
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: he.code, Message: he.message})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, CodeRoomNotFound, "Room not found"}
	case errors.Is(err, model.ErrInvalidState):
		return &httpError{http.StatusConflict, CodeInvalidState, "Operation not allowed in the current room state"}
	case errors.Is(err, model.ErrEmptyRoom):
		return &httpError{http.StatusConflict, CodeEmptyRoom, "Room does not have enough players"}
	case errors.Is(err, model.ErrInvalidPlayerIndex):
		return &httpError{http.StatusBadRequest, CodeInvalidPlayerIndex, "Player index is out of range"}
	case errors.Is(err, model.ErrInvalidRoomID):
		return &httpError{http.StatusBadRequest, CodeValidation, "room_id must be 1-64 letters, digits, '-' or '_'"}
	case errors.Is(err, model.ErrMissingFingerprint):
		return &httpError{http.StatusUnauthorized, CodeUnauthorized, "X-User-Fingerprint header is required"}
	case errors.Is(err, model.ErrNotCreator):
		return &httpError{http.StatusForbidden, CodePermissionDenied, "Only the room creator can perform this action"}
	case errors.Is(err, model.ErrRoomAlreadyExists):
		return &httpError{http.StatusConflict, CodeRoomAlreadyExists, "A room with this id already exists"}
	case errors.Is(err, model.ErrVersionConflict):
		return &httpError{http.StatusConflict, CodeVersionConflict, "Room has changed since it was last read"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusServiceUnavailable, CodeRequestCancelled, "Request was cancelled before it could be applied"}

	default:
		return &httpError{http.StatusInternalServerError, CodeServerError, "Internal server error"}
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) error {
	return &httpError{http.StatusBadRequest, CodeValidation, message}
}

// NewNotFoundError is written for requests that match no route
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, CodeNotFound, "No such endpoint"}
}

// NewMethodNotAllowedError is written when a route exists but not for the request method
func NewMethodNotAllowedError() error {
	return &httpError{http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed for this endpoint"}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, CodeUnauthorized, "X-User-Fingerprint header is required"}
}

// NewRateLimitedError creates a rate limit error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, CodeRateLimited, "Too many requests, slow down"}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, CodeServerError, "Internal server error"}
}

// NewUnavailableError creates a service unavailable error
func NewUnavailableError(message string) error {
	return &httpError{http.StatusServiceUnavailable, CodeUnavailable, message}
}
