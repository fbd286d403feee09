package report

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/devicelab-dev/crashcheck/pkg/core"
)

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Errors   int          `xml:"errors,attr"`
	Skipped  int          `xml:"skipped,attr"`
	Time     string       `xml:"time,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Errors    int         `xml:"errors,attr"`
	Skipped   int         `xml:"skipped,attr"`
	Time      string      `xml:"time,attr"`
	Timestamp string      `xml:"timestamp,attr"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	File      string        `xml:"file,attr,omitempty"`
	Time      string        `xml:"time,attr"`
	Failure   *junitProblem `xml:"failure,omitempty"`
	Error     *junitProblem `xml:"error,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// WriteJUnit writes the run as a JUnit XML file, one suite per platform
// and one test case per scenario.
func WriteJUnit(path string, result *core.RunResult) error {
	data, err := MarshalJUnit(result)
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// MarshalJUnit renders the run as JUnit XML.
func MarshalJUnit(result *core.RunResult) ([]byte, error) {
	suite := junitSuite{
		Name:      "crashcheck." + result.Platform,
		Tests:     len(result.Scenarios),
		Time:      seconds(result.Duration.Seconds()),
		Timestamp: result.StartTime.Format("2006-01-02T15:04:05"),
	}

	for _, sc := range result.Scenarios {
		tc := junitCase{
			Name:      sc.Name,
			Classname: "crashcheck." + sc.Platform,
			File:      sc.Source,
			Time:      seconds(sc.Duration.Seconds()),
		}

		switch sc.Status {
		case core.StatusFailed:
			suite.Failures++
			tc.Failure = problem(sc)
		case core.StatusErrored:
			suite.Errors++
			tc.Error = problem(sc)
		case core.StatusSkipped:
			suite.Skipped++
			tc.Skipped = &junitSkipped{Message: sc.Error}
		}
		if sc.Event != "" {
			tc.SystemOut = sc.Event
		}
		suite.Cases = append(suite.Cases, tc)
	}

	suites := junitSuites{
		Name:     "crashcheck",
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Errors:   suite.Errors,
		Skipped:  suite.Skipped,
		Time:     suite.Time,
		Suites:   []junitSuite{suite},
	}

	out, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func problem(sc core.ScenarioResult) *junitProblem {
	p := &junitProblem{Message: sc.Error}
	var body strings.Builder
	for _, step := range sc.Steps {
		if step.Status == core.StatusFailed || step.Status == core.StatusErrored {
			p.Type = step.Category.String()
		}
		fmt.Fprintf(&body, "[%s] %d %s %s", step.Status, step.Index, step.Command, step.Target)
		if step.Error != "" {
			fmt.Fprintf(&body, ": %s", step.Error)
		}
		body.WriteString("\n")
	}
	p.Body = body.String()
	return p
}

func seconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
