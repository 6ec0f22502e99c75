package domain

import (
	"errors"
	"fmt"
)

// ErrModelNotLoaded is returned when classification is attempted before the
// model and feature extractor are in place. Maps to HTTP 503.
var ErrModelNotLoaded = errors.New("model not loaded")

// DecodeError indicates the uploaded payload could not be interpreted as
// audio in the selected decode mode. Maps to HTTP 400.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio decoding failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("audio decoding failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NewDecodeError wraps a decoding failure with a caller-facing reason.
func NewDecodeError(reason string, err error) *DecodeError {
	return &DecodeError{Reason: reason, Err: err}
}

// InferenceError indicates an unexpected failure during feature extraction
// or the forward pass. Maps to HTTP 500, carrying the underlying cause.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("prediction failed during %s: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// NewInferenceError wraps an internal pipeline failure with its stage name.
func NewInferenceError(stage string, err error) *InferenceError {
	return &InferenceError{Stage: stage, Err: err}
}
