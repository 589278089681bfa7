package models

import (
	"fmt"
	"time"
)

// InvalidSpecError reports bad generation parameters (empty product set,
// empty or inverted date range).
type InvalidSpecError struct {
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid generation spec: %s", e.Reason)
}

// InsufficientDataError reports an empty product history where at least one
// observation is required.
type InsufficientDataError struct {
	ProductID string
}

func (e *InsufficientDataError) Error() string {
	if e.ProductID == "" {
		return "insufficient data: no observations"
	}
	return fmt.Sprintf("insufficient data: no observations for product %s", e.ProductID)
}

// NoCandidatesCompletedError reports a search whose budget expired (or all
// trainers failed) before any candidate completed.
type NoCandidatesCompletedError struct {
	Budget    time.Duration
	Attempted int
	Failed    int
}

func (e *NoCandidatesCompletedError) Error() string {
	return fmt.Sprintf("no candidates completed within %s (attempted=%d failed=%d)",
		e.Budget, e.Attempted, e.Failed)
}

// StaleModelError reports a feature-schema mismatch between a trained model
// artifact and the current feature pipeline.
type StaleModelError struct {
	ModelSchema   string
	CurrentSchema string
}

func (e *StaleModelError) Error() string {
	return fmt.Sprintf("stale model: trained on feature schema %q, pipeline is %q",
		e.ModelSchema, e.CurrentSchema)
}
