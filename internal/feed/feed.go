package feed

import (
	"context"
	"time"

	"courtbook/internal/ledger"
	"courtbook/internal/logger"
	"courtbook/internal/metrics"
	"courtbook/internal/projection"
)

// Feed pulls new events from the ledger and folds them into the
// projection. It is the index's only writer: queries running while a
// batch folds see either the pre- or post-event state, never half of
// one.
type Feed struct {
	backend  ledger.Backend
	index    *projection.Index
	interval time.Duration
}

func New(backend ledger.Backend, index *projection.Index, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Feed{backend: backend, index: index, interval: interval}
}

// Rebuild replays the whole log from sequence zero into a fresh index.
// Called on startup; the projection has no durability of its own.
func (f *Feed) Rebuild(ctx context.Context) error {
	f.index.Reset()
	return f.Poll(ctx)
}

// Poll fetches everything past the last folded sequence and applies it.
func (f *Feed) Poll(ctx context.Context) error {
	events, err := f.backend.EventsSince(ctx, f.index.LastSequence())
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	applied, corrupt := f.index.ApplyBatch(events)
	for _, err := range corrupt {
		logger.Errorf("skipping corrupt event: %v", err)
	}
	metrics.RecordEventsApplied(applied, len(corrupt))
	metrics.FeedLastSequence.Set(float64(f.index.LastSequence()))

	if applied > 0 {
		logger.Debugf("folded %d events, last sequence %d", applied, f.index.LastSequence())
	}
	return nil
}

// Start polls until the context is cancelled. Poll errors are logged
// and retried on the next tick; the ledger being briefly unreachable
// must not kill the index.
func (f *Feed) Start(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("event feed stopped")
			return
		case <-ticker.C:
			if err := f.Poll(ctx); err != nil {
				logger.Errorf("event feed poll failed: %v", err)
			}
		}
	}
}
