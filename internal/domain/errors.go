package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput flags a caller contract violation such as a missing venue name.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration flags missing or rejected credentials.
	ErrConfiguration = errors.New("configuration error")
	// ErrRetryExhausted is returned once transient failures use up every attempt.
	ErrRetryExhausted = errors.New("retries exhausted")
)

// FailureKind classifies a failed call to an external service.
type FailureKind int

const (
	KindTransient FailureKind = iota
	KindTimeout
	KindAuth
	KindProtocol
	KindNotFound
)

func (k FailureKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindProtocol:
		return "protocol"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// CallError is the typed failure returned by external service clients.
type CallError struct {
	Kind   FailureKind
	Op     string
	Status int
	Err    error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s failure (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind; ok is false when err is not a CallError.
func KindOf(err error) (FailureKind, bool) {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
