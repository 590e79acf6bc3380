package api

import (
	"errors"
	"net/http"
)

// ValidationError is a request the caller must fix. It is answered with 400
// and is never retried or reported to the operator.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// statusOf maps an error to its response status.
func statusOf(err error) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
