package registry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Failure categories. Every error the engine reports carries exactly one,
// assigned once at the transport or filesystem boundary so callers never
// have to pattern-match message text.
var (
	ErrUnavailable  = errors.New("registry temporarily unavailable")
	ErrAssetMissing = errors.New("no download available")
	ErrFilesystem   = errors.New("filesystem error")
	ErrBadDocument  = errors.New("malformed document")
)

// Category tells a caller's UI how to present a failure: whether a retry is
// worth offering, whether the user's environment needs fixing first, or
// whether this one mod's metadata is broken.
type Category string

const (
	CategoryTransient   Category = "transient"
	CategoryEnvironment Category = "environment"
	CategoryPackage     Category = "package"
)

// EngineError pairs a failure category with a human-readable message.
type EngineError struct {
	Kind    error
	Message string
}

func (e *EngineError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return e.Kind.Error()
}

func (e *EngineError) Unwrap() error {
	return e.Kind
}

// Category maps the error kind onto one of the three user-visible classes.
func (e *EngineError) Category() Category {
	switch {
	case errors.Is(e.Kind, ErrUnavailable):
		return CategoryTransient
	case errors.Is(e.Kind, ErrFilesystem):
		return CategoryEnvironment
	default:
		return CategoryPackage
	}
}

// NewEngineError creates an engine error of the given kind.
func NewEngineError(kind error, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// ClassifyHTTPStatus derives an error kind from a response status code.
// Rate limiting and gateway failures are transient; anything else that is
// not a success means the asset or document simply is not there to fetch.
func ClassifyHTTPStatus(status int) error {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return ErrAssetMissing
	}
}

// IsTimeout reports whether err is a transport timeout, which the fetch
// layer counts as transient.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
