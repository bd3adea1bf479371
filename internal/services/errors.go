package services

import (
	"errors"
	"fmt"

	"github.com/desertthunder/beatmiles/internal/shared"
)

// APIError is a non-2xx response. Message is the server's "message" field, possibly empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.Status)
	}
	return fmt.Sprintf("%v: status %d: %s", shared.ErrAPIRequest, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// Failure is the coarse kind of an error, used to pick the message shown to the user.
type Failure int

const (
	FailureNone Failure = iota
	FailureValidation
	FailureUnauthenticated
	FailureServer
	FailureTransport
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureValidation:
		return "validation"
	case FailureUnauthenticated:
		return "unauthenticated"
	case FailureServer:
		return "server"
	default:
		return "transport"
	}
}

// Classify maps err onto a [Failure]. Anything unrecognized is a transport failure.
func Classify(err error) Failure {
	var apiErr *APIError
	switch {
	case err == nil:
		return FailureNone
	case errors.As(err, &apiErr):
		return FailureServer
	case errors.Is(err, shared.ErrNotAuthenticated):
		return FailureUnauthenticated
	case errors.Is(err, shared.ErrMissingField), errors.Is(err, shared.ErrInvalidInput):
		return FailureValidation
	default:
		return FailureTransport
	}
}

// ServerMessage returns the server-supplied message carried by err, or fallback.
func ServerMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
