package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/devicelab-dev/crashcheck/pkg/config"
)

//go:embed builtin
var builtinFS embed.FS

// Builtin returns the bundled scenarios for platform, sorted by name.
func Builtin(platform config.Platform) ([]*Scenario, error) {
	dir := path.Join("builtin", string(platform))
	entries, err := fs.ReadDir(builtinFS, dir)
	if err != nil {
		return nil, fmt.Errorf("no built-in scenarios for %s: %w", platform, err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := builtinFS.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sc, err := Parse(data, p)
		if err != nil {
			return nil, err
		}
		if len(sc.Config.Platforms) == 0 {
			sc.Config.Platforms = []config.Platform{platform}
		}
		scenarios = append(scenarios, sc)
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Name() < scenarios[j].Name()
	})
	return scenarios, nil
}

// Load returns the built-in scenarios for platform plus any found in dir
// that run on it. A scenario in dir replaces a built-in of the same name.
// A missing dir is not an error; a file in it that fails to parse is.
func Load(platform config.Platform, dir string, includeTags, excludeTags []string) ([]*Scenario, error) {
	builtin, err := Builtin(platform)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Scenario)
	var order []string
	add := func(sc *Scenario) {
		if !sc.RunsOn(platform) || !ShouldInclude(sc, includeTags, excludeTags) {
			return
		}
		if _, ok := byName[sc.Name()]; !ok {
			order = append(order, sc.Name())
		}
		byName[sc.Name()] = sc
	}

	for _, sc := range builtin {
		add(sc)
	}
	if dir != "" {
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			custom, err := ParseDirectory(dir, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("custom scenarios in %s: %w", dir, err)
			}
			for _, sc := range custom {
				add(sc)
			}
		}
	}

	scenarios := make([]*Scenario, 0, len(order))
	for _, name := range order {
		scenarios = append(scenarios, byName[name])
	}
	return scenarios, nil
}

// Select returns the scenarios with the given names, in the order given.
// No names selects everything.
func Select(scenarios []*Scenario, names []string) ([]*Scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}

	byName := make(map[string]*Scenario, len(scenarios))
	for _, sc := range scenarios {
		byName[sc.Name()] = sc
	}

	selected := make([]*Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		selected = append(selected, sc)
	}
	return selected, nil
}
