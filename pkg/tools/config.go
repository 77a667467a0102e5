package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one allow-listed tool.
type Config struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	Version     string            `yaml:"version" json:"version"`
}

// ConfigFile represents the structure of tools.yaml
type ConfigFile struct {
	Tools []Config `yaml:"tools" json:"tools"`
}

// LoadConfig reads a configuration file (YAML or JSON) and returns the tools
// keyed by name. A missing file yields an empty set.
func LoadConfig(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Config{}, nil
		}
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	out := make(map[string]Config, len(cfg.Tools))
	for _, tool := range cfg.Tools {
		if tool.Name == "" || tool.Command == "" {
			continue
		}
		out[tool.Name] = tool
	}
	return out, nil
}
