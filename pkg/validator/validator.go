// Package validator checks scenario files before execution.
// It parses every file upfront and reports problems the runner would only
// hit halfway through a session.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/crashcheck/pkg/scenario"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Line    int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Files is the list of valid scenario files, in walk order.
	Files []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator validates scenario files.
type Validator struct {
	includeTags []string
	excludeTags []string
}

// New creates a new Validator.
func New(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// Validate validates a file or directory.
func (v *Validator) Validate(path string) *Result {
	result := &Result{}

	info, err := os.Stat(path)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    path,
			Message: fmt.Sprintf("cannot access: %v", err),
		})
		return result
	}

	var files []string
	if info.IsDir() {
		files, err = collectScenarioFiles(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("failed to scan directory: %v", err),
			})
			return result
		}
	} else {
		files = []string{path}
	}

	names := make(map[string]string)
	for _, file := range files {
		v.validateFile(file, result, names)
	}

	return result
}

// collectScenarioFiles finds all .yaml/.yml files in a directory.
func collectScenarioFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func (v *Validator) validateFile(filePath string, result *Result, names map[string]string) {
	sc, err := scenario.ParseFile(filePath)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("parse error: %v", err),
		})
		return
	}

	if !scenario.ShouldInclude(sc, v.includeTags, v.excludeTags) {
		return
	}

	if other, ok := names[sc.Name()]; ok {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("duplicate scenario name %q (also in %s)", sc.Name(), other),
		})
		return
	}
	names[sc.Name()] = filePath

	errs := CheckSteps(sc)
	for _, e := range errs {
		e.File = filePath
		result.Errors = append(result.Errors, e)
	}
	if len(errs) == 0 {
		result.Files = append(result.Files, filePath)
	}
}

// CheckSteps reports ordering and expression errors in a parsed scenario.
// Assertions and fetches need an earlier capture, and assertions on the
// fetched event need a fetch after the latest capture.
func CheckSteps(sc *scenario.Scenario) []*ValidationError {
	var errs []*ValidationError
	captured := false
	fetched := false

	for _, step := range sc.Steps {
		switch step.Type {
		case scenario.StepCapture:
			captured = true
			fetched = false
		case scenario.StepFetch:
			if !captured {
				errs = append(errs, stepError(step, "fetch before capture"))
			}
			fetched = true
		case scenario.StepAssert:
			if !captured {
				errs = append(errs, stepError(step, "assert before capture"))
			}
			if _, err := goja.Compile("", "("+step.Expr+")", true); err != nil {
				errs = append(errs, stepError(step, fmt.Sprintf("invalid expression: %v", err)))
			} else if strings.Contains(step.Expr, "fetched") && !fetched {
				errs = append(errs, stepError(step, "assertion uses fetched before fetch"))
			}
		}
	}
	return errs
}

func stepError(step scenario.Step, msg string) *ValidationError {
	return &ValidationError{
		Line:    step.Line,
		Message: fmt.Sprintf("%s: %s", step.Describe(), msg),
	}
}
