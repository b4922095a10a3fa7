package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

// Migrate applies pending schema migrations and returns the resulting
// version.
func Migrate(cfg Config) (uint, error) {
	db, err := OpenStore(cfg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	version, dirty, err := db.MigrationVersion()
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

// Sweep expires overdue approvals once, or every interval until ctx ends
// when interval is positive.
func Sweep(ctx context.Context, cfg Config, interval time.Duration) (int, error) {
	logger := NewLogger(cfg)
	ctx = slogx.WithContext(ctx, logger)

	db, err := OpenStore(cfg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	bus, pub, err := ConnectEvents(cfg, logger)
	if err != nil {
		return 0, err
	}
	defer bus.Close()

	metrics := telemetry.NewMetrics()
	approvals := &service.ApprovalService{Store: db, Metrics: metrics, TTL: cfg.ApprovalTTL}
	if pub != nil {
		approvals.Events = pub
	}

	sweeper := &service.SweepService{
		Store:     db,
		Approvals: approvals,
		Metrics:   metrics,
		Batch:     cfg.SweepBatch,
	}

	if interval > 0 {
		logger.Info("approval sweep looping", "interval", interval)
		return 0, sweeper.Loop(ctx, interval)
	}
	return sweeper.Run(ctx)
}
