// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for sirseer-harvest with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. HARVEST_* environment variables
//  3. A .env file in the working directory
//  4. The YAML configuration file
//  5. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from defaults, the config file at
// configPath (or a discovered one when empty), a .env file and the
// environment, in that order.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".sirseer-harvest.yaml",
			".sirseer-harvest.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "harvest.yaml"),
			filepath.Join(os.Getenv("HOME"), ".sirseer", "harvest.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	// A missing .env file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Paths.StateFile = expandPath(cfg.Paths.StateFile)
	cfg.Paths.SolutionsDir = expandPath(cfg.Paths.SolutionsDir)
	cfg.Paths.MetadataDir = expandPath(cfg.Paths.MetadataDir)
	cfg.Credentials.TokenFile = expandPath(cfg.Credentials.TokenFile)
	cfg.Credentials.CredentialsFile = expandPath(cfg.Credentials.CredentialsFile)

	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	// Mail
	if v := os.Getenv("HARVEST_MAIL_USER"); v != "" {
		cfg.Mail.User = v
	}
	if v := os.Getenv("HARVEST_QUERY"); v != "" {
		cfg.Mail.Query = v
	}
	if v := os.Getenv("HARVEST_MIME_TYPE"); v != "" {
		cfg.Mail.MimeType = v
	}

	// Solution API
	if v := os.Getenv("HARVEST_API_SCHEME"); v != "" {
		cfg.Solution.Scheme = v
	}
	if v := os.Getenv("HARVEST_API_HOST"); v != "" {
		cfg.Solution.APIHost = v
	}
	if v := os.Getenv("HARVEST_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HARVEST_API_TIMEOUT: %w", err)
		}
		cfg.Solution.Timeout = d
	}

	// Pipeline
	if v := os.Getenv("HARVEST_BATCH_SIZE"); v != "" {
		size, err := parsePositiveInt(v)
		if err != nil {
			return fmt.Errorf("HARVEST_BATCH_SIZE: %w", err)
		}
		cfg.Pipeline.BatchSize = size
	}
	if v := os.Getenv("HARVEST_DOWNLOAD_BATCH_SIZE"); v != "" {
		size, err := parsePositiveInt(v)
		if err != nil {
			return fmt.Errorf("HARVEST_DOWNLOAD_BATCH_SIZE: %w", err)
		}
		cfg.Pipeline.DownloadBatchSize = size
	}
	if v := os.Getenv("HARVEST_MAX_STRUCTURAL_FAILURES"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("HARVEST_MAX_STRUCTURAL_FAILURES: invalid value %q", v)
		}
		cfg.Pipeline.MaxStructuralFailures = n
	}

	// Paths
	if v := os.Getenv("HARVEST_STATE_FILE"); v != "" {
		cfg.Paths.StateFile = v
	}
	if v := os.Getenv("HARVEST_STATE_BACKEND"); v != "" {
		cfg.Paths.StateBackend = v
	}
	if v := os.Getenv("HARVEST_SOLUTIONS_DIR"); v != "" {
		cfg.Paths.SolutionsDir = v
	}
	if v := os.Getenv("HARVEST_METADATA_DIR"); v != "" {
		cfg.Paths.MetadataDir = v
	}

	// Logging
	if v := os.Getenv("HARVEST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HARVEST_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Credentials
	if v := os.Getenv("HARVEST_CREDENTIALS_SOURCE"); v != "" {
		cfg.Credentials.Source = v
	}
	if v := os.Getenv("HARVEST_TOKEN_FILE"); v != "" {
		cfg.Credentials.TokenFile = v
	}
	if v := os.Getenv("HARVEST_CREDENTIALS_FILE"); v != "" {
		cfg.Credentials.CredentialsFile = v
	}
	if v := os.Getenv("HARVEST_KEYRING_SERVICE"); v != "" {
		cfg.Credentials.KeyringService = v
	}

	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func parsePositiveInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Mail.Query) == "" {
		return fmt.Errorf("mail query cannot be empty")
	}
	if c.Mail.PageSize <= 0 || c.Mail.PageSize > 500 {
		return fmt.Errorf("mail page size must be between 1 and 500, got: %d", c.Mail.PageSize)
	}
	if c.Mail.MaxPages < 0 {
		return fmt.Errorf("mail max pages cannot be negative, got: %d", c.Mail.MaxPages)
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got: %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.DownloadBatchSize <= 0 {
		return fmt.Errorf("download batch size must be positive, got: %d", c.Pipeline.DownloadBatchSize)
	}
	if c.Pipeline.MaxStructuralFailures < 0 {
		return fmt.Errorf("max structural failures cannot be negative, got: %d", c.Pipeline.MaxStructuralFailures)
	}
	if c.RateLimit.ContentCalls < 0 || c.RateLimit.SolutionCalls < 0 || c.RateLimit.Period < 0 {
		return fmt.Errorf("rate limits cannot be negative")
	}
	if c.Solution.APIHost == "" {
		return fmt.Errorf("solution API host cannot be empty")
	}
	if c.Solution.Scheme != "http" && c.Solution.Scheme != "https" {
		return fmt.Errorf("unknown solution API scheme %q", c.Solution.Scheme)
	}
	if c.Paths.StateFile == "" {
		return fmt.Errorf("state file path cannot be empty")
	}
	switch c.Paths.StateBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown state backend %q", c.Paths.StateBackend)
	}
	switch c.Credentials.Source {
	case SourceFile, SourceKeyring:
	default:
		return fmt.Errorf("unknown credentials source %q", c.Credentials.Source)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
