// Package event reads error-reporting payloads: the JSON the sample app
// renders into its status field, and the same event as served by the Sentry API.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/devicelab-dev/crashcheck/pkg/core"
)

// Event is a parsed error-reporting event. The schema belongs to the SDK;
// fields are read by path and never constructed here.
type Event struct {
	raw    string
	parsed gjson.Result
}

// Frame is a single stack frame of an exception.
type Frame struct {
	Function string
	Package  string
	Platform string
}

// IsNative reports whether the frame comes from a native image.
func (f Frame) IsNative() bool {
	return f.Package != ""
}

// IsJS reports whether the frame comes from the JavaScript bundle.
func (f Frame) IsJS() bool {
	return f.Platform == "javascript"
}

// Exception is one entry of exception.values.
type Exception struct {
	Type   string
	Value  string
	Frames []Frame
}

// NativeFrames counts frames with a package.
func (e Exception) NativeFrames() int {
	n := 0
	for _, f := range e.Frames {
		if f.IsNative() {
			n++
		}
	}
	return n
}

// JSFrames counts JavaScript frames.
func (e Exception) JSFrames() int {
	n := 0
	for _, f := range e.Frames {
		if f.IsJS() {
			n++
		}
	}
	return n
}

// Parse validates text as a JSON object and wraps it.
func Parse(text string) (*Event, error) {
	if !gjson.Valid(text) {
		return nil, core.ErrInvalidPayload.WithCause(fmt.Errorf("not valid JSON: %.80q", text))
	}
	parsed := gjson.Parse(text)
	if !parsed.IsObject() {
		return nil, core.ErrInvalidPayload.WithCause(fmt.Errorf("expected a JSON object, got %s", parsed.Type))
	}
	return &Event{raw: text, parsed: parsed}, nil
}

// Raw returns the JSON text the event was parsed from.
func (e *Event) Raw() string {
	return e.raw
}

// Map decodes the event into generic JSON values.
func (e *Event) Map() (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(e.raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ID returns event_id, or eventID as returned by the web API.
func (e *Event) ID() string {
	if id := e.parsed.Get("event_id").String(); id != "" {
		return id
	}
	return e.parsed.Get("eventID").String()
}

// Level returns the event level (fatal, error, warning, info, debug).
func (e *Event) Level() string { return e.parsed.Get("level").String() }

// Release returns the release name.
func (e *Event) Release() string { return e.parsed.Get("release").String() }

// Dist returns the distribution.
func (e *Event) Dist() string { return e.parsed.Get("dist").String() }

// Platform returns the platform the event was created on.
func (e *Event) Platform() string { return e.parsed.Get("platform").String() }

// Message returns the message, accepting both the plain string and the
// {"formatted": ...} interface form.
func (e *Event) Message() string {
	msg := e.parsed.Get("message")
	if msg.IsObject() {
		if f := msg.Get("formatted"); f.Exists() {
			return f.String()
		}
		return msg.Get("message").String()
	}
	return msg.String()
}

// Breadcrumbs returns the number of breadcrumbs, in list or {"values": [...]} form.
func (e *Event) Breadcrumbs() int {
	return countList(e.parsed.Get("breadcrumbs"))
}

// Threads returns the number of threads.
func (e *Event) Threads() int {
	return countList(e.parsed.Get("threads"))
}

// DebugImages returns the number of debug images.
func (e *Event) DebugImages() int {
	return len(e.parsed.Get("debug_meta.images").Array())
}

// SDKName returns sdk.name.
func (e *Event) SDKName() string { return e.parsed.Get("sdk.name").String() }

// Exceptions returns exception.values (or a bare exception list).
func (e *Event) Exceptions() []Exception {
	values := e.parsed.Get("exception.values")
	if !values.Exists() {
		values = e.parsed.Get("exception")
	}

	var out []Exception
	for _, v := range values.Array() {
		ex := Exception{
			Type:  v.Get("type").String(),
			Value: v.Get("value").String(),
		}
		for _, f := range v.Get("stacktrace.frames").Array() {
			ex.Frames = append(ex.Frames, Frame{
				Function: f.Get("function").String(),
				Package:  f.Get("package").String(),
				Platform: f.Get("platform").String(),
			})
		}
		out = append(out, ex)
	}
	return out
}

func countList(r gjson.Result) int {
	if r.IsObject() {
		r = r.Get("values")
	}
	return len(r.Array())
}

// Summary collects the report fields of the event.
func (e *Event) Summary() *core.EventSummary {
	sum := &core.EventSummary{
		ID:          e.ID(),
		Level:       e.Level(),
		Release:     e.Release(),
		Dist:        e.Dist(),
		Platform:    e.Platform(),
		Message:     e.Message(),
		SDK:         e.SDKName(),
		Breadcrumbs: e.Breadcrumbs(),
		Threads:     e.Threads(),
		DebugImages: e.DebugImages(),
	}
	for _, ex := range e.Exceptions() {
		sum.Exceptions++
		sum.NativeFrames += ex.NativeFrames()
		sum.JSFrames += ex.JSFrames()
	}
	return sum
}
