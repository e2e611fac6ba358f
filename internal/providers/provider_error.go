package providers

import (
	"errors"
	"fmt"

	"github.com/fieldops/fieldmirror/internal/constants"
)

// ErrorKind is the coarse failure classification the sync engine branches on.
type ErrorKind int

const (
	// KindTransient covers timeouts, 5xx and network failures; retried with backoff.
	KindTransient ErrorKind = iota
	// KindRateLimited is a 429; retried with backoff like transient errors.
	KindRateLimited
	// KindAuthExpired means the token must be refreshed by the caller; never retried here.
	KindAuthExpired
	// KindFatal covers other 4xx and malformed responses; aborts the resource's run.
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindAuthExpired:
		return "auth_expired"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ProviderError wraps an upstream failure with its code and kind
type ProviderError struct {
	Code    string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError from a code, filling in the
// canonical message for that code.
func NewProviderError(code string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{
		Code:    code,
		Kind:    kind,
		Message: constants.GetErrorMessage(code),
		Err:     err,
	}
}

// Classify returns the error kind for any error coming out of a provider.
// Non-provider errors are treated as transient so they go through the
// bounded retry path rather than silently killing a run.
func Classify(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// IsRetryable reports whether the engine may retry the same page after
// backing off.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case KindTransient, KindRateLimited:
		return true
	default:
		return false
	}
}
