package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

const DefaultSweepBatch = 500

// SweepService expires pending approvals whose window has closed. It runs
// from the sweep command, never inside the server.
type SweepService struct {
	Store     store.Store
	Approvals *ApprovalService
	Metrics   *telemetry.Metrics
	Now       func() time.Time
	Batch     int
}

// Run expires everything that is due and returns the count.
func (s *SweepService) Run(ctx context.Context) (int, error) {
	log := slogx.FromContext(ctx)
	batch := s.Batch
	if batch <= 0 {
		batch = DefaultSweepBatch
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		ids, err := s.Store.Approvals().ListExpiredPending(ctx, clock(s.Now), batch)
		if err != nil {
			log.Error("failed to list expired approvals", slog.Any("error", err))
			return total, err
		}
		if len(ids) == 0 {
			break
		}

		n, err := s.Approvals.BulkExpire(ctx, ids)
		total += n
		if err != nil {
			return total, err
		}
		// Everything listed was already terminal; nothing left to do.
		if n == 0 || len(ids) < batch {
			break
		}
	}

	s.Metrics.Swept(total)
	log.Info("approval sweep finished", slog.Int("expired", total))
	return total, nil
}

// Loop runs the sweep every interval until ctx is done.
func (s *SweepService) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx); err != nil && ctx.Err() == nil {
			slogx.FromContext(ctx).Error("approval sweep failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
