package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScenarioInfo describes one preset scenario file.
type ScenarioInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

type scenarioHeader struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ListScenarios returns every *.yaml / *.yml file in dir, sorted by id.
// Files that fail to parse are reported as an error.
func ListScenarios(dir string) ([]ScenarioInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var out []ScenarioInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario %s: %w", e.Name(), err)
		}
		var h scenarioHeader
		if err := yaml.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("failed to parse scenario %s: %w", e.Name(), err)
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		name := h.Name
		if name == "" {
			name = id
		}
		out = append(out, ScenarioInfo{ID: id, Name: name, Description: h.Description, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindScenario resolves a scenario id to its file in dir.
func FindScenario(dir, id string) (ScenarioInfo, error) {
	list, err := ListScenarios(dir)
	if err != nil {
		return ScenarioInfo{}, err
	}
	for _, s := range list {
		if s.ID == id {
			return s, nil
		}
	}
	return ScenarioInfo{}, fmt.Errorf("scenario %q not found", id)
}

// DefaultScenarioDir returns SCENARIO_DIR, or ./examples/scenarios.
func DefaultScenarioDir() string {
	if dir := os.Getenv("SCENARIO_DIR"); dir != "" {
		return dir
	}
	return "./examples/scenarios"
}

// SaveJSON writes v as indented JSON, creating the parent directory.
func SaveJSON(v any, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	if err := os.WriteFile(filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return nil
}
