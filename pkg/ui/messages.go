// Package ui provides the Bubble Tea dashboard for the evaluation engine.
package ui

import (
	"github.com/fd1az/arbeval/business/evaluation/domain"
)

// Message types for TUI updates

// EvaluationMsg is sent when the engine finishes evaluating a candidate.
type EvaluationMsg struct {
	Evaluation *domain.Evaluation
}

// ThresholdsMsg is sent when the risk thresholds are replaced at runtime.
type ThresholdsMsg struct {
	Description string
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
