package recorder

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/trogers1052/position-valuation/internal/models"
)

// RunStore persists completed runs
type RunStore interface {
	CreateValuationRun(run *models.ValuationRun) error
}

// RunPublisher announces completed runs
type RunPublisher interface {
	PublishRun(ctx context.Context, run *models.ValuationRun) error
}

// Recorder persists and publishes completed runs; either side may be absent
type Recorder struct {
	store     RunStore
	publisher RunPublisher
}

// New creates a Recorder. Pass untyped nil for a missing store or publisher.
func New(store RunStore, publisher RunPublisher) *Recorder {
	return &Recorder{store: store, publisher: publisher}
}

// HasStore reports whether runs are persisted
func (r *Recorder) HasStore() bool {
	return r != nil && r.store != nil
}

// HandleRun stores the run, then publishes it. A storage failure is
// returned; a publish failure is only logged.
func (r *Recorder) HandleRun(ctx context.Context, run *models.ValuationRun) error {
	if r == nil {
		return nil
	}
	if r.store != nil {
		if err := r.store.CreateValuationRun(run); err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}
	}
	if r.publisher != nil {
		if err := r.publisher.PublishRun(ctx, run); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to publish valuation run")
		}
	}
	return nil
}
