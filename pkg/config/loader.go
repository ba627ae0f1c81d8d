package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads a configuration from a YAML file into config, replacing
// ${VAR_NAME} references with environment values first. Fields absent from
// the file keep their current values, so defaults can be set beforehand.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// LoadIngestion reads a file over the defaults and validates the result.
func LoadIngestion(filePath string) (*IngestionConfig, error) {
	cfg := NewIngestionConfig("")
	if err := Load(filePath, cfg); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", filePath, err)
	}
	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandEnv replaces ${VAR_NAME}. A lone '$' is kept as is.
func expandEnv(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(content[start:], '}')
		if end < 0 {
			break
		}
		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : start+end]))
		content = content[start+end+1:]
	}
	b.WriteString(content)
	return b.String()
}

