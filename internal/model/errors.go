package model

import "errors"

// Error kinds surfaced by the decision engine. Callers match with errors.Is;
// producers wrap them with detail via fmt.Errorf("%w: ...").
var (
	ErrInvalidConfig       = errors.New("invalid config")
	ErrInvalidArm          = errors.New("invalid arm")
	ErrInvalidValue        = errors.New("invalid value")
	ErrNotFound            = errors.New("not found")
	ErrNoPendingSuggestion = errors.New("no pending suggestion")
)
