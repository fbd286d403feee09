// Package report writes run results to disk: report.json for tools,
// junit.xml for CI, report.html for people.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devicelab-dev/crashcheck/pkg/core"
)

// File names inside the output directory.
const (
	JSONFile  = "report.json"
	JUnitFile = "junit.xml"
	HTMLFile  = "report.html"
)

// Paths lists the files written by Write.
type Paths struct {
	JSON  string
	JUnit string
	HTML  string
}

// Write writes every report format into outputDir.
func Write(outputDir string, result *core.RunResult) (Paths, error) {
	paths := Paths{
		JSON:  filepath.Join(outputDir, JSONFile),
		JUnit: filepath.Join(outputDir, JUnitFile),
		HTML:  filepath.Join(outputDir, HTMLFile),
	}

	if err := ensureDir(outputDir); err != nil {
		return paths, fmt.Errorf("create report dir: %w", err)
	}
	if err := atomicWriteJSON(paths.JSON, result); err != nil {
		return paths, fmt.Errorf("write json report: %w", err)
	}
	if err := WriteJUnit(paths.JUnit, result); err != nil {
		return paths, fmt.Errorf("write junit report: %w", err)
	}
	if err := WriteHTML(paths.HTML, result); err != nil {
		return paths, fmt.Errorf("write html report: %w", err)
	}
	return paths, nil
}

// ReadJSON loads a run result written by Write.
func ReadJSON(path string) (*core.RunResult, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided report path
	if err != nil {
		return nil, err
	}
	var result core.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &result, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// atomicWriteJSON writes v as indented JSON through a temp file and rename,
// so readers never see a partial report.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
