// Package advisor integrates the automated advisor that proposes a
// first-pass solution from issue text. The advisor sits on the critical path
// of ticket creation, so the contract is deliberately forgiving: any failure
// is reported as ErrUnavailable and the workflow falls back to an Open
// ticket rather than blocking creation.
package advisor

import (
	"context"
	"errors"
)

// ErrUnavailable signals that no suggestion could be obtained. Callers map
// it to the Open-status fallback; it never aborts ticket creation.
var ErrUnavailable = errors.New("advisor unavailable")

// Advisor proposes a first-pass solution for an issue description.
type Advisor interface {
	GetSuggestion(ctx context.Context, description string) (string, error)
}

// Disabled is the no-op advisor used when no endpoint is configured. Every
// call reports unavailability, so tickets are created Open.
type Disabled struct{}

func (Disabled) GetSuggestion(ctx context.Context, description string) (string, error) {
	return "", ErrUnavailable
}
