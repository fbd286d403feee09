// Package jsengine evaluates JavaScript assertions against captured events.
package jsengine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/crashcheck/pkg/core"
	"github.com/devicelab-dev/crashcheck/pkg/event"
	"github.com/devicelab-dev/crashcheck/pkg/logger"
)

// Engine wraps a goja runtime with the globals assertions and ${...}
// expansions use:
//
//	event                the captured event, as plain JS values
//	fetched              the same event as returned by the Sentry API, once fetched
//	crashcheck.platform  android or ios
//	nativeFrames(ex)     frames of an exception that carry a package
//	jsFrames(ex)         frames of an exception with platform "javascript"
//	json(str)            JSON.parse shorthand
//
// Scenario and --env variables are set as further globals.
type Engine struct {
	runtime  *goja.Runtime
	platform string
	mu       sync.Mutex
}

// New creates a new JS engine instance
func New() *Engine {
	e := &Engine{
		runtime: goja.New(),
	}

	e.setupBuiltins()
	return e
}

// setupBuiltins registers all built-in functions and objects
func (e *Engine) setupBuiltins() {
	e.setupConsole()

	e.runtime.Set("json", e.jsonFunc())
	e.runtime.Set("nativeFrames", e.frameFilter(event.Frame.IsNative))
	e.runtime.Set("jsFrames", e.frameFilter(event.Frame.IsJS))

	e.runtime.Set("crashcheck", e.crashcheckObject())
	e.runtime.Set("event", goja.Undefined())
	e.runtime.Set("fetched", goja.Undefined())
}

// setupConsole routes console.log, console.error and console.warn to the log file.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(log func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			log("[js] %s", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.Info))
	console.Set("error", makeConsoleFunc(logger.Error))
	console.Set("warn", makeConsoleFunc(logger.Warn))
	e.runtime.Set("console", console)
}

// jsonFunc returns the json() helper function
func (e *Engine) jsonFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}

		str := call.Arguments[0].String()

		result, err := e.runtime.RunString(fmt.Sprintf("JSON.parse(%q)", str))
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}

		return result
	}
}

// frameFilter builds a helper that takes an exception value and returns the
// stack frames matching keep.
func (e *Engine) frameFilter(keep func(event.Frame) bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var out []interface{}
		if len(call.Arguments) < 1 {
			return e.runtime.ToValue(out)
		}

		ex, _ := call.Arguments[0].Export().(map[string]interface{})
		st, _ := ex["stacktrace"].(map[string]interface{})
		frames, _ := st["frames"].([]interface{})
		for _, f := range frames {
			if frame, ok := f.(map[string]interface{}); ok && keep(toFrame(frame)) {
				out = append(out, frame)
			}
		}
		if out == nil {
			out = []interface{}{}
		}
		return e.runtime.ToValue(out)
	}
}

func toFrame(m map[string]interface{}) event.Frame {
	var f event.Frame
	f.Function, _ = m["function"].(string)
	f.Package, _ = m["package"].(string)
	f.Platform, _ = m["platform"].(string)
	return f
}

// crashcheckObject returns the crashcheck global object
func (e *Engine) crashcheckObject() *goja.Object {
	obj := e.runtime.NewObject()

	// crashcheck.platform - current platform (android/ios)
	obj.DefineAccessorProperty("platform", e.runtime.ToValue(func() string {
		return e.platform
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	return obj
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runtime.Set(name, value)
}

// SetVariables sets multiple variables
func (e *Engine) SetVariables(vars map[string]string) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// SetEvent exposes a decoded event as the event global.
func (e *Engine) SetEvent(event map[string]interface{}) {
	e.SetVariable("event", event)
}

// SetFetched exposes the event returned by the web API as the fetched global.
func (e *Engine) SetFetched(event map[string]interface{}) {
	e.SetVariable("fetched", event)
}

// SetPlatform sets the current platform
func (e *Engine) SetPlatform(platform string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.platform = platform
}

// Eval evaluates a JavaScript expression and returns the result
func (e *Engine) Eval(script string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}

	return result.Export(), nil
}

// EvalString evaluates a JavaScript expression and returns string result
func (e *Engine) EvalString(script string) (string, error) {
	result, err := e.Eval(script)
	if err != nil {
		return "", err
	}

	if result == nil {
		return "", nil
	}

	return fmt.Sprintf("%v", result), nil
}

// Assert evaluates expr and fails unless the result is truthy. Failures
// carry the expression text as their message.
func (e *Engine) Assert(expr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(expr)
	if err != nil {
		return core.ErrAssertionFailed.WithMessage(expr).WithCause(err)
	}
	if !result.ToBoolean() {
		return core.ErrAssertionFailed.WithMessage(expr).WithDetails(map[string]interface{}{
			"result": result.String(),
		})
	}
	return nil
}

// ExpandVariables expands ${...} expressions in a string using JS evaluation
func (e *Engine) ExpandVariables(text string) (string, error) {
	result := text
	start := 0

	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		// Find matching }
		depth := 1
		end := idx + 2
		for end < len(result) && depth > 0 {
			if result[end] == '{' {
				depth++
			} else if result[end] == '}' {
				depth--
			}
			end++
		}

		if depth != 0 {
			// Unmatched brace, skip
			start = idx + 2
			continue
		}

		expr := result[idx+2 : end-1]

		value, err := e.EvalString(expr)
		if err != nil {
			// leave as-is
			start = end
			continue
		}

		result = result[:idx] + value + result[end:]
		start = idx + len(value)
	}

	return result, nil
}
