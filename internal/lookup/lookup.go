// Package lookup is the boundary between the review session and the
// network-backed translation and speech providers. Whatever a provider
// fails with, callers only ever see an *UnavailableError.
package lookup

import (
	"context"
	"errors"
	"fmt"
)

// Translator translates text between two languages
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	Name() string
}

// Speaker synthesizes speech for text in a language. A speaker without a
// voice for the language returns (nil, nil).
type Speaker interface {
	Speak(ctx context.Context, text, language string) ([]byte, error)
	Name() string
}

// ErrUnavailable matches every *UnavailableError
var ErrUnavailable = errors.New("lookup unavailable")

// UnavailableError reports a failed provider call
type UnavailableError struct {
	Op       string // "translate" or "speak"
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s via %s unavailable: %v", e.Op, e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }
