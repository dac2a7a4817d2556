// Package worker runs background network refresh jobs, triggered by Pub/Sub
// messages or a fixed interval.
package worker

import (
	"context"
	"time"
)

// Refresher reloads or re-imports a network snapshot and reports how many
// routes it now holds.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) (int, error)

// Refresh calls f(ctx).
func (f RefresherFunc) Refresh(ctx context.Context) (int, error) {
	return f(ctx)
}

// RefreshTarget is a named snapshot to refresh.
type RefreshTarget struct {
	// Name identifies the target in logs and results.
	Name string

	// Refresher performs the refresh.
	Refresher Refresher

	// Priority determines refresh order (lower = earlier).
	Priority int
}

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Targets are refreshed on every run.
	Targets []RefreshTarget

	// Concurrency is the number of targets refreshed at once.
	// Default: 2
	Concurrency int

	// Timeout bounds each target refresh.
	// Default: 2 minutes
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration for targets.
func DefaultRefreshConfig(targets ...RefreshTarget) RefreshConfig {
	return RefreshConfig{
		Targets:     targets,
		Concurrency: 2,
		Timeout:     2 * time.Minute,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	return c
}
