package models

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the core can report
type Kind string

const (
	KindScript Kind = "script"
	KindImage  Kind = "image"
	KindAudio  Kind = "audio"
	KindFocus  Kind = "focus"

	KindDecode Kind = "decode"

	KindEmptyInput      Kind = "emptyInput"
	KindUnknownVoice    Kind = "unknownVoice"
	KindUnknownDuration Kind = "unknownDuration"
)

// GenerationError means a remote capability failed or returned unusable content
type GenerationError struct {
	Kind Kind
	Err  error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("failed to generate %s", generationSubject(e.Kind))
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ResourceError means a payload could not be turned into a playable handle
type ResourceError struct {
	Kind Kind
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource %s failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("resource %s failed", e.Kind)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// ValidationError is raised locally before any remote call
type ValidationError struct {
	Kind  Kind
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindEmptyInput:
		return fmt.Sprintf("%s must not be empty", e.Field)
	default:
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
}

// ErrEmptyInput is the sentinel matched by errors.Is for empty-input validation errors
var ErrEmptyInput = errors.New("empty input")

func (e *ValidationError) Is(target error) bool {
	return target == ErrEmptyInput && e.Kind == KindEmptyInput
}

// KindOf extracts the failure kind from any error produced by the core
func KindOf(err error) (Kind, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind, true
	}
	var resErr *ResourceError
	if errors.As(err, &resErr) {
		return resErr.Kind, true
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Kind, true
	}
	return "", false
}

func generationSubject(kind Kind) string {
	switch kind {
	case KindScript:
		return "meditation script"
	case KindImage:
		return "meditation images"
	case KindAudio:
		return "meditation audio"
	case KindFocus:
		return "daily focus"
	}
	return string(kind)
}
