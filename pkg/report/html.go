package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/devicelab-dev/crashcheck/pkg/core"
)

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title     string
	Generated string
	Result    *core.RunResult
	Scenarios []ScenarioHTMLData
}

// ScenarioHTMLData is one scenario row with its steps.
type ScenarioHTMLData struct {
	core.ScenarioResult
	StatusClass string
	DurationStr string
	EventPretty string
}

// WriteHTML renders the run as a single self-contained HTML page.
func WriteHTML(path string, result *core.RunResult) error {
	html, err := RenderHTML(result)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return atomicWrite(path, html)
}

// RenderHTML renders the run as HTML.
func RenderHTML(result *core.RunResult) ([]byte, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"statusClass": statusClass,
		"duration":    func(d time.Duration) string { return round(d).String() },
	}).Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildHTMLData(result)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildHTMLData(result *core.RunResult) HTMLData {
	data := HTMLData{
		Title:     fmt.Sprintf("crashcheck: %s", result.Platform),
		Generated: result.StartTime.Format(time.RFC3339),
		Result:    result,
	}
	for _, sc := range result.Scenarios {
		data.Scenarios = append(data.Scenarios, ScenarioHTMLData{
			ScenarioResult: sc,
			StatusClass:    statusClass(sc.Status),
			DurationStr:    round(sc.Duration).String(),
			EventPretty:    prettyJSON(sc.Event),
		})
	}
	return data
}

func statusClass(s core.StepStatus) string {
	switch s {
	case core.StatusPassed:
		return "passed"
	case core.StatusFailed, core.StatusErrored:
		return "failed"
	case core.StatusSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

func prettyJSON(raw string) string {
	if raw == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --text-primary: #000000;
            --text-muted: rgb(107, 114, 128);
            --border-color: #e5e7eb;
            --passed: #22c55e;
            --failed: #ef4444;
            --skipped: #eab308;
            --pending: #6b7280;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; background: var(--bg-secondary); color: var(--text-primary); padding: 24px; }
        h1 { font-size: 20px; margin-bottom: 4px; }
        .meta { color: var(--text-muted); font-size: 13px; margin-bottom: 16px; }
        .summary span { margin-right: 16px; font-weight: 600; }
        .scenario { background: var(--bg-primary); border: 1px solid var(--border-color); border-left: 4px solid var(--pending); border-radius: 6px; margin: 12px 0; padding: 12px 16px; }
        .scenario.passed { border-left-color: var(--passed); }
        .scenario.failed { border-left-color: var(--failed); }
        .scenario.skipped { border-left-color: var(--skipped); }
        .error { color: var(--failed); font-size: 13px; margin-top: 6px; }
        table { width: 100%; border-collapse: collapse; margin-top: 8px; font-size: 13px; }
        td { padding: 4px 6px; border-top: 1px solid var(--border-color); vertical-align: top; }
        td.passed { color: var(--passed); }
        td.failed { color: var(--failed); }
        td.skipped { color: var(--skipped); }
        pre { background: var(--bg-secondary); padding: 8px; overflow-x: auto; font-size: 12px; margin-top: 8px; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="meta">{{.Result.Profile}} profile, started {{.Generated}}, took {{duration .Result.Duration}}</div>
    <div class="summary">
        <span>{{.Result.Total}} total</span>
        <span style="color: var(--passed)">{{.Result.Passed}} passed</span>
        <span style="color: var(--failed)">{{.Result.Failed}} failed</span>
        <span style="color: var(--skipped)">{{.Result.Skipped}} skipped</span>
    </div>
    {{range .Scenarios}}
    <div class="scenario {{.StatusClass}}">
        <strong>{{.Name}}</strong> <span class="meta">{{.Status}} in {{.DurationStr}}{{if .Source}}, {{.Source}}{{end}}</span>
        {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
        {{with .Captured}}<div class="meta">event {{.ID}}: {{.Level}}{{if .Release}}, release {{.Release}}{{end}}{{if .Dist}}, dist {{.Dist}}{{end}}{{if .Exceptions}}, {{.Exceptions}} exception(s) with {{.NativeFrames}} native and {{.JSFrames}} JS frames{{end}}</div>{{end}}
        <table>
            {{range .Steps}}
            <tr>
                <td class="{{statusClass .Status}}">{{.Status}}</td>
                <td>{{.Command}}</td>
                <td>{{.Target}}</td>
                <td>{{duration .Duration}}</td>
                <td>{{.Error}}</td>
            </tr>
            {{end}}
        </table>
        {{if .EventPretty}}<details><summary>event</summary><pre>{{.EventPretty}}</pre></details>{{end}}
    </div>
    {{end}}
</body>
</html>
`
