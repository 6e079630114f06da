package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mensylisir/xmpublish/util"
)

// Loader handles loading and initial parsing of a PublishConfig from a file.
type Loader struct {
	filePath string
}

// NewLoader creates a new configuration loader for the given file path.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads the configuration file, unmarshals it into PublishConfig,
// and performs basic structural validation.
// Defaulting and semantic validation are handled by SetDefaults and Validate.
func (l *Loader) Load() (*PublishConfig, error) {
	if l.filePath == "" {
		return nil, fmt.Errorf("configuration file path is empty")
	}
	path, err := util.ExpandPath(l.filePath)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("configuration file '%s' is empty", path)
	}

	var cfg PublishConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML from '%s': %w", path, err)
	}

	if cfg.APIVersion == "" {
		return nil, fmt.Errorf("config validation failed: apiVersion is a required field in '%s'", path)
	}
	if cfg.APIVersion != APIVersion {
		return nil, fmt.Errorf("config validation failed: unsupported apiVersion '%s' in '%s', expected '%s'", cfg.APIVersion, path, APIVersion)
	}
	if cfg.Kind != KindPublish {
		return nil, fmt.Errorf("config validation failed: kind must be '%s' in '%s', got '%s'", KindPublish, path, cfg.Kind)
	}
	if cfg.Metadata.Name == "" {
		return nil, fmt.Errorf("config validation failed: metadata.name is a required field in '%s'", path)
	}
	return &cfg, nil
}
