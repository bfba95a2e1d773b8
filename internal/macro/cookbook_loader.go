package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// overrideDoc is the on-disk shape one cookbook YAML file declares: a
// static, argument-less step list registered under name alongside the
// built-in generators (spec.md §4.3's cookbook stays fixed; overrides only
// add new macro names, they never shadow a built-in one).
type overrideDoc struct {
	Name  string           `yaml:"name"`
	Steps []map[string]any `yaml:"steps"`
}

// LoadOverrides reads every *.yaml/*.yml file directly under dir and
// registers each as an additional macro generator returning its step list
// verbatim. Returns the count of macros registered; a missing dir is not
// an error (the feature is opt-in).
func LoadOverrides(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("macro: read cookbook dir %s: %w", dir, err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := loadOverrideFile(filepath.Join(dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func loadOverrideFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("macro: read %s: %w", path, err)
	}
	var doc overrideDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("macro: parse %s: %w", path, err)
	}
	if doc.Name == "" {
		return fmt.Errorf("macro: %s: missing required 'name'", path)
	}
	if _, builtin := generators[doc.Name]; builtin {
		return fmt.Errorf("macro: %s: cannot override built-in macro %q", path, doc.Name)
	}

	steps := doc.Steps
	generators[doc.Name] = func(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
		return Plan{Steps: steps}, nil
	}
	return nil
}
