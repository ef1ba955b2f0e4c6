package aiprovider

import (
	"errors"
	"fmt"

	"github.com/beeper/recipe-ingest/pkg/aierrors"
)

// NotConfiguredMessage is returned in place of any AI output when no API key is set.
const NotConfiguredMessage = "AI feature is not configured. Please add GEMINI_API_KEY to .env"

var (
	ErrNotConfigured = errors.New(NotConfiguredMessage)
	ErrEmptyResponse = errors.New("model returned no choices")
)

type ErrorKind string

const (
	ErrorUnconfigured ErrorKind = "unconfigured"
	ErrorUpstream     ErrorKind = "upstream"
)

// ModelError is returned by Complete. Unconfigured errors never touch the network.
type ModelError struct {
	Kind   ErrorKind
	Reason aierrors.Reason
	Err    error
}

func (e *ModelError) Error() string {
	if e.Kind == ErrorUnconfigured {
		return NotConfiguredMessage
	}
	return fmt.Sprintf("model request failed: %s", aierrors.ProviderMessage(e.Err))
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// IsUnconfigured reports whether err is a ModelError caused by a missing API key.
func IsUnconfigured(err error) bool {
	var modelErr *ModelError
	return errors.As(err, &modelErr) && modelErr.Kind == ErrorUnconfigured
}
