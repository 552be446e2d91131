package scrape

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Failure categories surfaced by a scrape. Use errors.Is or KindOf to test.
var (
	// ErrMissingConfiguration means a required provider credential is unset.
	ErrMissingConfiguration = eris.New("missing configuration")
	// ErrUnsupportedPlatform means the platform name is unknown or cannot be
	// searched by keyword.
	ErrUnsupportedPlatform = eris.New("unsupported platform")
	// ErrProviderInvocation means the actor run or dataset read failed.
	ErrProviderInvocation = eris.New("provider invocation failed")
	// ErrMissingCredential means a credential needed only by one platform's
	// actor is unset.
	ErrMissingCredential = eris.New("missing credential for platform")
)

// ErrorKind is the stable name of a failure category.
type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindMissingConfiguration ErrorKind = "missing_configuration"
	KindUnsupportedPlatform  ErrorKind = "unsupported_platform"
	KindProviderInvocation   ErrorKind = "provider_invocation"
	KindMissingCredential    ErrorKind = "missing_credential"
	KindInternal             ErrorKind = "internal"
)

var kinds = []struct {
	sentinel error
	kind     ErrorKind
}{
	{ErrMissingConfiguration, KindMissingConfiguration},
	{ErrMissingCredential, KindMissingCredential},
	{ErrUnsupportedPlatform, KindUnsupportedPlatform},
	{ErrProviderInvocation, KindProviderInvocation},
}

// KindOf classifies err. Errors outside the taxonomy are KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindInternal
}

// kindError tags a cause with a failure category while keeping both
// reachable through errors.Is and errors.As.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// ProviderError tags err as a provider invocation failure. Errors that
// already carry a category are returned unchanged.
func ProviderError(err error) error {
	if err == nil || KindOf(err) != KindInternal {
		return err
	}
	return &kindError{kind: ErrProviderInvocation, cause: err}
}
