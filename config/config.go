/*
 * Copyright (c) SAS Institute Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	Version = "unknown" // set this at link time
	Commit  = "unknown" // set this at link time
)

const defaultTimeout = 5 * time.Minute

// ExtractorConfig overrides how the cabinet extraction tool is invoked.
// Command is a template where {src} and {dest} are substituted.
type ExtractorConfig struct {
	Command []string `yaml:"command"`
	Timeout Duration `yaml:"timeout"`
}

type Config struct {
	Keys      map[string]string `yaml:"keys"` // named master keys
	Extractor *ExtractorConfig  `yaml:"extractor"`
	Backup    *bool             `yaml:"backup"`
}

func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := new(Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// DefaultConfig returns the path checked when --config is not given.
func DefaultConfig() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "xcpdump.yml")
}

// GetKey looks up a named master key. Keys are stored as strings and parsed
// by the caller so hex and raw keys both work.
func (config *Config) GetKey(keyName string) (string, error) {
	if config.Keys == nil {
		return "", fmt.Errorf("no keys defined in configuration")
	}
	key, ok := config.Keys[keyName]
	if !ok {
		return "", fmt.Errorf("key %q not found in configuration", keyName)
	}
	return key, nil
}

// BackupEnabled reports whether the input file should be copied aside before
// it is overwritten. Defaults to true.
func (config *Config) BackupEnabled() bool {
	return config.Backup == nil || *config.Backup
}

// ExtractTimeout returns the configured extraction deadline, or the default.
func (config *Config) ExtractTimeout() time.Duration {
	if config.Extractor == nil || config.Extractor.Timeout == 0 {
		return defaultTimeout
	}
	return time.Duration(config.Extractor.Timeout)
}

// Duration adds YAML support for values like "90s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	*d = Duration(parsed)
	return nil
}
