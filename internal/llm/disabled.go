package llm

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrDisabled is returned by Disabled for every completion request.
var ErrDisabled = errors.New("model gateway not configured")

// Disabled is a Client used when no gateway is configured. Consumers that
// have deterministic fallbacks degrade gracefully; the rest surface
// ErrDisabled.
type Disabled struct{}

var _ Client = Disabled{}

// Complete always fails with ErrDisabled.
func (Disabled) Complete(context.Context, []Message) (string, error) {
	return "", ErrDisabled
}
