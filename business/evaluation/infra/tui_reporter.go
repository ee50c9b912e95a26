package infra

import (
	"context"

	"github.com/fd1az/arbeval/business/evaluation/domain"
	"github.com/fd1az/arbeval/pkg/ui"
)

// TUIReporter implements Reporter by pushing evaluations into the
// Bubble Tea dashboard.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter. The dashboard program is
// owned by main; the reporter only sends messages to it.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start initializes the TUI reporter.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// Report sends an evaluation to the dashboard.
func (r *TUIReporter) Report(ev *domain.Evaluation) {
	ui.Send(ui.EvaluationMsg{Evaluation: ev})
}

// Stop gracefully shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	return nil
}
