package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RefreshJob refreshes its targets with a bounded worker pool.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	mu      sync.RWMutex
	metrics RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	TotalRuns      int64
	SuccessfulRuns int64
	FailedTargets  int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration

	// LastRoutes holds the route count reported by each target on its last success.
	LastRoutes map[string]int
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config RefreshConfig
	Logger zerolog.Logger
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config.withDefaults()

	targets := append([]RefreshTarget(nil), config.Targets...)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Priority < targets[j].Priority })
	config.Targets = targets

	return &RefreshJob{
		config:  config,
		logger:  cfg.Logger,
		metrics: RefreshMetrics{LastRoutes: make(map[string]int)},
	}
}

// RefreshResult contains the outcome of a run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Targets    int
	Successful int
	Failed     int
	Routes     map[string]int
	Errors     []RefreshError
}

// RefreshError records a failed target.
type RefreshError struct {
	Target string
	Error  string
}

type targetResult struct {
	name   string
	routes int
	err    error
}

// Run refreshes every target and waits for all of them.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	start := time.Now()
	result := &RefreshResult{
		StartTime: start,
		Targets:   len(j.config.Targets),
		Routes:    make(map[string]int),
	}

	j.logger.Info().
		Int("targets", result.Targets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting network refresh")

	work := make(chan RefreshTarget, len(j.config.Targets))
	results := make(chan targetResult, len(j.config.Targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range work {
				results <- j.refreshTarget(ctx, target)
			}
		}()
	}

	for _, t := range j.config.Targets {
		work <- t
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{Target: r.name, Error: r.err.Error()})
			continue
		}
		result.Successful++
		result.Routes[r.name] = r.routes
	}
	sort.Slice(result.Errors, func(a, b int) bool { return result.Errors[a].Target < result.Errors[b].Target })

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("network refresh completed")

	return result
}

func (j *RefreshJob) refreshTarget(ctx context.Context, target RefreshTarget) targetResult {
	if err := ctx.Err(); err != nil {
		return targetResult{name: target.Name, err: err}
	}

	targetCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	routes, err := target.Refresher.Refresh(targetCtx)
	if err != nil {
		j.logger.Error().
			Err(err).
			Str("target", target.Name).
			Msg("network refresh failed")
		return targetResult{name: target.Name, err: err}
	}

	j.logger.Debug().
		Str("target", target.Name).
		Int("routes", routes).
		Msg("network target refreshed")
	return targetResult{name: target.Name, routes: routes}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.metrics.TotalRuns++
	if result.Failed == 0 {
		j.metrics.SuccessfulRuns++
	}
	j.metrics.FailedTargets += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
	for name, n := range result.Routes {
		j.metrics.LastRoutes[name] = n
	}
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.mu.RLock()
	defer j.mu.RUnlock()

	m := j.metrics
	m.LastRoutes = make(map[string]int, len(j.metrics.LastRoutes))
	for k, v := range j.metrics.LastRoutes {
		m.LastRoutes[k] = v
	}
	return m
}

// MetricsSnapshot returns the current metrics as a map for status endpoints.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_runs":   m.SuccessfulRuns,
		"failed_targets":    m.FailedTargets,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
		"last_routes":       m.LastRoutes,
	}
}

// RunEvery runs the job immediately and then on every tick until ctx is done.
func (j *RefreshJob) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
