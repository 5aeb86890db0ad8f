package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"gopkg.in/yaml.v3"
)

// GetConfigPath determines the configuration file path.
// Priority:
// 1. the -config command-line flag
// 2. the DORKBOT_CONFIG_PATH environment variable
// 3. dorkbot.yaml / dorkbot.json in the current working directory
// 4. dorkbot.yaml / dorkbot.json in the user config directory
// Returns "" when no config file is found, in which case defaults apply.
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" {
		return configFilePathFlag
	}

	if envPath := os.Getenv("DORKBOT_CONFIG_PATH"); envPath != "" {
		if fileExists(envPath) {
			return envPath
		}
	}

	defaultFiles := []string{"dorkbot.yaml", "dorkbot.json"}
	var locations []string
	if cwd, err := os.Getwd(); err == nil {
		locations = append(locations, cwd)
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		locations = append(locations, filepath.Join(configDir, "dorkbot"))
	}

	for _, loc := range locations {
		for _, file := range defaultFiles {
			path := filepath.Join(loc, file)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// LoadGlobalConfig loads the configuration from a file or default
// locations, supporting both YAML and JSON formats. A missing file is not
// an error; defaults are returned.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		return cfg, nil
	}
	if !fileExists(filePath) {
		return nil, common.NewValidationError("config_file", filePath, "config file does not exist")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to read config file")
	}

	ext := filepath.Ext(filePath)
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, common.WrapErrorf(err, "failed to unmarshal YAML from '%s'", filePath)
		}
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, common.WrapErrorf(err, "failed to unmarshal JSON from '%s'", filePath)
	}
	return cfg, nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
