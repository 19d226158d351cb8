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

// Package config types define the configuration structures used throughout
// sirseer-harvest. These types represent settings that can be loaded from
// YAML configuration files, .env files, environment variables, or
// command-line flags.
package config

import "time"

// Config represents the complete configuration for sirseer-harvest.
// Each component constructor receives the section it needs.
type Config struct {
	Mail        MailConfig        `yaml:"mail"`
	Solution    SolutionConfig    `yaml:"solution"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Paths       PathsConfig       `yaml:"paths"`
	Log         LogConfig         `yaml:"log"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// MailConfig contains the mail search and content settings.
type MailConfig struct {
	User       string `yaml:"user"`
	Query      string `yaml:"query"`
	PageSize   int    `yaml:"page_size"`
	MaxPages   int    `yaml:"max_pages"`
	MimeType   string `yaml:"mime_type"`
	MaxRetries int    `yaml:"max_retries"`
}

// SolutionConfig locates the content API that resolves solution links.
type SolutionConfig struct {
	Scheme     string        `yaml:"scheme"`
	APIHost    string        `yaml:"api_host"`
	APIPath    string        `yaml:"api_path"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// PipelineConfig bounds the work done by a single run.
type PipelineConfig struct {
	BatchSize             int `yaml:"batch_size"`
	DownloadBatchSize     int `yaml:"download_batch_size"`
	MaxStructuralFailures int `yaml:"max_structural_failures"`
}

// RateLimitConfig caps content fetches and content API calls to a number
// of calls per period.
type RateLimitConfig struct {
	ContentCalls  int           `yaml:"content_calls"`
	SolutionCalls int           `yaml:"solution_calls"`
	Period        time.Duration `yaml:"period"`
}

// PathsConfig contains the filesystem locations of the run-state,
// artifacts and run metadata.
type PathsConfig struct {
	StateFile    string `yaml:"state_file"`
	StateBackend string `yaml:"state_backend"`
	SolutionsDir string `yaml:"solutions_dir"`
	MetadataDir  string `yaml:"metadata_dir"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CredentialsConfig selects where the mail session token comes from.
type CredentialsConfig struct {
	Source          string   `yaml:"source"`
	TokenFile       string   `yaml:"token_file"`
	CredentialsFile string   `yaml:"credentials_file"`
	KeyringService  string   `yaml:"keyring_service"`
	Scopes          []string `yaml:"scopes"`
}

// Supported state backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Supported credential sources.
const (
	SourceFile    = "file"
	SourceKeyring = "keyring"
)

// DefaultConfig returns a configuration with sensible defaults for a
// scheduled daily run against Gmail.
func DefaultConfig() *Config {
	return &Config{
		Mail: MailConfig{
			User:       "me",
			Query:      "subject:(Daily Coding Problem)",
			PageSize:   250,
			MimeType:   "text/plain",
			MaxRetries: 3,
		},
		Solution: SolutionConfig{
			Scheme:     "https",
			APIHost:    "www.dailycodingproblem.com",
			APIPath:    "api/solution",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Pipeline: PipelineConfig{
			BatchSize:         50,
			DownloadBatchSize: 50,
		},
		RateLimit: RateLimitConfig{
			ContentCalls:  1,
			SolutionCalls: 1,
			Period:        time.Second,
		},
		Paths: PathsConfig{
			StateFile:    "data/run_state.json",
			StateBackend: BackendFile,
			SolutionsDir: "solutions",
			MetadataDir:  "data/metadata",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Credentials: CredentialsConfig{
			Source:          SourceFile,
			TokenFile:       "config/token.json",
			CredentialsFile: "config/credentials.json",
			KeyringService:  "sirseer-harvest",
			Scopes:          []string{"https://www.googleapis.com/auth/gmail.readonly"},
		},
	}
}
