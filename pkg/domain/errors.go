package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the parent of every invalid-argument failure.
// Use errors.Is(err, ErrInvalidArgument) to classify.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidCount is returned when a non-positive trial count is requested.
var ErrInvalidCount = fmt.Errorf("%w: trial count must be positive", ErrInvalidArgument)

// ErrNegativeLimit is returned when a reroll or explode limit is negative.
var ErrNegativeLimit = fmt.Errorf("%w: limit must be non-negative", ErrInvalidArgument)

// ErrEmptyOperands is returned when a combinator is built without operands.
var ErrEmptyOperands = fmt.Errorf("%w: at least one operand is required", ErrInvalidArgument)

// ErrInvalidRange is returned for an empty or non-steppable uniform range.
var ErrInvalidRange = fmt.Errorf("%w: range must satisfy min <= max and step >= 1", ErrInvalidArgument)

// ErrTypeMismatch is returned when a value that is neither an integer nor a node
// is supplied where a node is required.
var ErrTypeMismatch = errors.New("type mismatch")

// ErrResourceLimit is returned when an exact distribution would exceed a configured ceiling.
// Callers can fall back to simulation.
var ErrResourceLimit = errors.New("resource limit exceeded")

// ErrNoSource indicates that no random source was configured.
// No node can produce output without one, so this is a fatal configuration failure.
var ErrNoSource = errors.New("no random source configured")

// TypeError describes a value that could not be used as a node.
type TypeError struct {
	Where string // Composition point (e.g. "sum operand", "keep count")
	Value any    // The offending value
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: expected integer or node, got %T", e.Where, e.Value)
}

func (e *TypeError) Unwrap() error { return ErrTypeMismatch }

// LimitError reports which ceiling an exact computation would have exceeded.
type LimitError struct {
	Resource  string // "pool width", "outcomes", "depth"
	Limit     int
	Requested int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s %d exceeds limit %d", e.Resource, e.Requested, e.Limit)
}

func (e *LimitError) Unwrap() error { return ErrResourceLimit }
