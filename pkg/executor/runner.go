// Package executor runs scenarios against the app, one session per scenario.
package executor

import (
	"context"
	"time"

	"github.com/devicelab-dev/crashcheck/pkg/config"
	"github.com/devicelab-dev/crashcheck/pkg/core"
	"github.com/devicelab-dev/crashcheck/pkg/event"
	"github.com/devicelab-dev/crashcheck/pkg/logger"
	"github.com/devicelab-dev/crashcheck/pkg/scenario"
	"github.com/devicelab-dev/crashcheck/pkg/session"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// EventFetcher looks captured events up in the error-reporting backend.
type EventFetcher interface {
	FetchEvent(ctx context.Context, eventID string) (*event.Event, error)
}

// RunnerConfig configures the scenario runner.
type RunnerConfig struct {
	Platform     config.Platform
	Profile      config.Profile
	Capabilities map[string]interface{}
	Factory      session.Factory

	// Fetcher resolves fetch steps. Scenarios tagged api are skipped without one.
	Fetcher EventFetcher

	// Sleep implements sleep steps. Defaults to a context-aware timer.
	Sleep Sleeper

	// Env variables override a scenario's own env.
	Env map[string]string

	OutputDir  string // screenshots go to <OutputDir>/screenshots; empty disables saving
	StopOnFail bool   // skip the remaining scenarios after the first failure

	// Live progress callbacks
	OnScenarioStart func(idx, total int, name string)
	OnStepComplete  func(idx int, desc string, status core.StepStatus, duration time.Duration, err string)
	OnScenarioEnd   func(name string, status core.StepStatus, duration time.Duration)
}

// Runner orchestrates scenario execution.
type Runner struct {
	config RunnerConfig
}

// New creates a new Runner.
func New(cfg RunnerConfig) *Runner {
	if cfg.Sleep == nil {
		cfg.Sleep = ContextSleep
	}
	return &Runner{config: cfg}
}

// ContextSleep sleeps for d, returning early with ctx.Err() on cancellation.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes scenarios sequentially and aggregates their results.
func (r *Runner) Run(ctx context.Context, scenarios []*scenario.Scenario) *core.RunResult {
	start := time.Now()
	result := &core.RunResult{
		Platform:  string(r.config.Platform),
		Profile:   string(r.config.Profile),
		StartTime: start,
		Scenarios: make([]core.ScenarioResult, 0, len(scenarios)),
	}

	stop := ""
	for i, sc := range scenarios {
		if stop == "" && ctx.Err() != nil {
			stop = "run cancelled"
		}
		if stop != "" {
			result.Scenarios = append(result.Scenarios, r.skipped(sc, stop))
			continue
		}

		if r.config.OnScenarioStart != nil {
			r.config.OnScenarioStart(i, len(scenarios), sc.Name())
		}
		sr := r.RunScenario(ctx, sc)
		result.Scenarios = append(result.Scenarios, sr)
		if r.config.OnScenarioEnd != nil {
			r.config.OnScenarioEnd(sr.Name, sr.Status, sr.Duration)
		}

		if r.config.StopOnFail && (sr.Status == core.StatusFailed || sr.Status == core.StatusErrored) {
			stop = "stopped after " + sr.Name + " failed"
		}
	}

	result.Duration = time.Since(start)
	result.ComputeSummary()
	logger.Info("Run finished: %d passed, %d failed, %d skipped in %v",
		result.Passed, result.Failed, result.Skipped, result.Duration)
	return result
}

// RunScenario runs one scenario on a fresh session proxy. The session is
// always quit before returning, whatever the outcome.
func (r *Runner) RunScenario(ctx context.Context, sc *scenario.Scenario) core.ScenarioResult {
	if sc.HasTag(scenario.TagAPI) && r.config.Fetcher == nil {
		logger.Info("Skipping %s: no Sentry API access (%s not set)", sc.Name(), config.EnvSentryAuth)
		return r.skipped(sc, config.EnvSentryAuth+" not set")
	}

	proxy := session.NewProxy(r.config.Factory, r.config.Capabilities)
	defer proxy.Quit()

	sr := newScenarioRunner(ctx, r, sc, proxy)
	return sr.run()
}

func (r *Runner) skipped(sc *scenario.Scenario, reason string) core.ScenarioResult {
	res := core.ScenarioResult{
		Name:      sc.Name(),
		Platform:  string(r.config.Platform),
		Source:    sc.SourcePath,
		Status:    core.StatusSkipped,
		StartTime: time.Now(),
		Error:     reason,
	}
	for i, step := range sc.Steps {
		res.Steps = append(res.Steps, core.StepResult{
			Index:   i,
			Command: string(step.Type),
			Target:  stepTarget(step),
			Status:  core.StatusSkipped,
		})
	}
	res.ComputeSummary()
	return res
}
