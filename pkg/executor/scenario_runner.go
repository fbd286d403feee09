package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/crashcheck/pkg/core"
	"github.com/devicelab-dev/crashcheck/pkg/driver/appium"
	"github.com/devicelab-dev/crashcheck/pkg/event"
	"github.com/devicelab-dev/crashcheck/pkg/jsengine"
	"github.com/devicelab-dev/crashcheck/pkg/logger"
	"github.com/devicelab-dev/crashcheck/pkg/scenario"
	"github.com/devicelab-dev/crashcheck/pkg/session"
)

// ScenarioRunner executes the steps of a single scenario.
type ScenarioRunner struct {
	ctx      context.Context
	runner   *Runner
	scenario *scenario.Scenario
	proxy    *session.Proxy
	engine   *jsengine.Engine

	captured *event.Event
	shots    int
}

func newScenarioRunner(ctx context.Context, r *Runner, sc *scenario.Scenario, proxy *session.Proxy) *ScenarioRunner {
	engine := jsengine.New()
	engine.SetPlatform(string(r.config.Platform))
	engine.SetVariables(sc.Config.Env)
	engine.SetVariables(r.config.Env)
	return &ScenarioRunner{
		ctx:      ctx,
		runner:   r,
		scenario: sc,
		proxy:    proxy,
		engine:   engine,
	}
}

func (sr *ScenarioRunner) run() core.ScenarioResult {
	start := time.Now()
	cfg := sr.runner.config
	res := core.ScenarioResult{
		Name:      sr.scenario.Name(),
		Platform:  string(cfg.Platform),
		Source:    sr.scenario.SourcePath,
		StartTime: start,
	}
	logger.Info("Scenario %s: %d steps", res.Name, len(sr.scenario.Steps))

	var failure error
	for i, step := range sr.scenario.Steps {
		sres := core.StepResult{
			Index:     i,
			Command:   string(step.Type),
			Target:    stepTarget(step),
			StartTime: time.Now(),
		}

		switch {
		case failure != nil:
			sres.Status = core.StatusSkipped
		case sr.ctx.Err() != nil:
			sres.Status = core.StatusSkipped
			failure = sr.ctx.Err()
			res.Error = "execution cancelled"
		default:
			err := sr.executeStep(step)
			sres.Duration = time.Since(sres.StartTime)
			if err == nil {
				sres.Status = core.StatusPassed
				logger.Debug("  [%d] %s: passed (%v)", i, step.Describe(), sres.Duration)
				break
			}
			failure = err
			if sr.ctx.Err() != nil && errors.Is(err, sr.ctx.Err()) {
				sres.Status = core.StatusSkipped
				res.Error = "execution cancelled"
				break
			}
			sres.Status = statusFor(err)
			sres.Category = core.CategoryOf(err)
			sres.Error = err.Error()
			res.Error = fmt.Sprintf("step %d (%s): %v", i, step.Describe(), err)
			logger.Error("  [%d] %s: %s: %v", i, step.Describe(), sres.Status, err)
			sr.screenshotOnFailure()
		}

		res.Steps = append(res.Steps, sres)
		if cfg.OnStepComplete != nil && sres.Status != core.StatusSkipped {
			cfg.OnStepComplete(i, step.Describe(), sres.Status, sres.Duration, sres.Error)
		}
	}

	if sr.captured != nil {
		res.Event = sr.captured.Raw()
		res.Captured = sr.captured.Summary()
	}
	res.ComputeSummary()
	res.Status = res.AggregateStatus()
	if res.Status == core.StatusPassed && res.Error == "execution cancelled" {
		res.Status = core.StatusSkipped
	}
	res.Duration = time.Since(start)
	logger.Info("Scenario %s: %s in %v", res.Name, res.Status, res.Duration)
	return res
}

// statusFor maps an error to a step status: the app misbehaving is a
// failure, the harness or transport misbehaving is an error.
func statusFor(err error) core.StepStatus {
	switch core.CategoryOf(err) {
	case core.ErrCategoryAssertion, core.ErrCategoryPayload, core.ErrCategoryAPI:
		return core.StatusFailed
	default:
		return core.StatusErrored
	}
}

func stepTarget(step scenario.Step) string {
	switch step.Type {
	case scenario.StepTap, scenario.StepScreenshot:
		return step.Target
	case scenario.StepAssert:
		return step.Expr
	case scenario.StepSleep:
		return step.Duration.String()
	}
	return ""
}

func (sr *ScenarioRunner) executeStep(step scenario.Step) error {
	switch step.Type {
	case scenario.StepTap:
		return sr.tap(sr.expand(step.Target))
	case scenario.StepSleep:
		return sr.runner.config.Sleep(sr.ctx, step.Duration)
	case scenario.StepRelaunch:
		sr.proxy.RelaunchApp()
		return nil
	case scenario.StepCapture:
		return sr.capture()
	case scenario.StepExpectEmpty:
		return sr.expectEmpty()
	case scenario.StepAssert:
		if sr.captured == nil {
			return core.ErrNoEvent
		}
		return sr.engine.Assert(step.Expr)
	case scenario.StepFetch:
		return sr.fetch()
	case scenario.StepScreenshot:
		return sr.screenshot(sr.expand(step.Target))
	}
	return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported step %q", step.Type))
}

// expand resolves ${...} in a step target. Expressions that fail to
// evaluate are left as written.
func (sr *ScenarioRunner) expand(text string) string {
	out, err := sr.engine.ExpandVariables(text)
	if err != nil {
		return text
	}
	return out
}

func (sr *ScenarioRunner) tap(id string) error {
	err := sr.proxy.TapByAccessibilityID(id)
	if err != nil && appium.IsNoSuchElement(err) {
		return core.ErrElementNotFound.WithMessage(fmt.Sprintf("element %q not found", id)).WithCause(err)
	}
	return err
}

func (sr *ScenarioRunner) capture() error {
	ev, err := event.Capture(sr.proxy, sr.runner.config.Platform)
	if err != nil {
		return err
	}
	data, err := ev.Map()
	if err != nil {
		return core.ErrInvalidPayload.WithCause(err)
	}
	sr.captured = ev
	sr.engine.SetEvent(data)
	logger.Debug("Captured event %s (level %s)", ev.ID(), ev.Level())
	return nil
}

func (sr *ScenarioRunner) expectEmpty() error {
	text, err := event.StatusText(sr.proxy, sr.runner.config.Platform)
	if err != nil {
		return err
	}
	if text != "" {
		return core.ErrUnexpectedStatus.WithDetails(map[string]interface{}{"status": text})
	}
	return nil
}

func (sr *ScenarioRunner) fetch() error {
	if sr.captured == nil {
		return core.ErrNoEvent
	}
	fetcher := sr.runner.config.Fetcher
	if fetcher == nil {
		return core.ErrInvalidConfig.WithMessage("no Sentry API access configured")
	}
	ev, err := fetcher.FetchEvent(sr.ctx, sr.captured.ID())
	if err != nil {
		return err
	}
	data, err := ev.Map()
	if err != nil {
		return core.ErrInvalidPayload.WithCause(err)
	}
	sr.engine.SetFetched(data)
	return nil
}

func (sr *ScenarioRunner) screenshot(name string) error {
	png, err := sr.proxy.Screenshot()
	if err != nil {
		return err
	}
	return sr.saveScreenshot(name, png)
}

// screenshotOnFailure saves the screen when a session is open. It never
// opens one and its errors only get logged.
func (sr *ScenarioRunner) screenshotOnFailure() {
	if !sr.proxy.Active() || sr.runner.config.OutputDir == "" {
		return
	}
	png, err := sr.proxy.Screenshot()
	if err != nil {
		logger.Warn("Failure screenshot: %v", err)
		return
	}
	if err := sr.saveScreenshot("failure", png); err != nil {
		logger.Warn("Failure screenshot: %v", err)
	}
}

func (sr *ScenarioRunner) saveScreenshot(name string, png []byte) error {
	dir := sr.runner.config.OutputDir
	if dir == "" {
		return nil
	}
	sr.shots++
	if name == "" {
		name = fmt.Sprintf("%d", sr.shots)
	}
	dir = filepath.Join(dir, "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	file := filepath.Join(dir, fmt.Sprintf("%s-%s-%s.png",
		sr.runner.config.Platform, sr.scenario.Name(), sanitize(name)))
	if err := os.WriteFile(file, png, 0o644); err != nil { //#nosec G306 -- report artifact
		return fmt.Errorf("write screenshot: %w", err)
	}
	logger.Debug("Screenshot saved: %s", file)
	return nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}
