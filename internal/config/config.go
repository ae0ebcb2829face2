package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names an alternate config file. Files ending in .yaml or .yml
// are decoded as YAML, anything else as JSON.
const EnvConfigFile = "YOUR_SERIES_CONFIG"

// DefaultUserAgent is sent with every playlist request.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// Config holds every tunable of a build or serve run.
type Config struct {
	// Build inputs and outputs
	PlaylistList string `json:"playlist_list" yaml:"playlist_list"`
	OutputPath   string `json:"output_path" yaml:"output_path"`
	CachePath    string `json:"cache_path" yaml:"cache_path"`

	// Metadata services
	TMDBAPIKey            string `json:"tmdb_api_key" yaml:"tmdb_api_key"`
	TMDBLanguage          string `json:"tmdb_language" yaml:"tmdb_language"`
	TMDBRateLimit         int    `json:"tmdb_rate_limit" yaml:"tmdb_rate_limit"`
	TMDBRateWindowSeconds int    `json:"tmdb_rate_window_seconds" yaml:"tmdb_rate_window_seconds"`
	OMDBAPIKey            string `json:"omdb_api_key" yaml:"omdb_api_key"`
	WorkerCount           int    `json:"worker_count" yaml:"worker_count"`

	// HTTP client
	UserAgent             string `json:"user_agent" yaml:"user_agent"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`

	// Logging
	EnableLogging    bool   `json:"enable_logging" yaml:"enable_logging"`
	LogRetentionDays int    `json:"log_retention_days" yaml:"log_retention_days"`
	LogLevel         string `json:"log_level" yaml:"log_level"`
	LogFormat        string `json:"log_format" yaml:"log_format"`

	// Addon server
	ServerPort                int    `json:"server_port" yaml:"server_port"`
	AddonID                   string `json:"addon_id" yaml:"addon_id"`
	AddonName                 string `json:"addon_name" yaml:"addon_name"`
	LibraryGlob               string `json:"library_glob" yaml:"library_glob"`
	CheckStreams              bool   `json:"check_streams" yaml:"check_streams"`
	StreamCheckTimeoutSeconds int    `json:"stream_check_timeout_seconds" yaml:"stream_check_timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PlaylistList:              "m3u_series_list.txt",
		OutputPath:                "organized_series_data.json",
		CachePath:                 "id_cache.json",
		TMDBLanguage:              "en-US",
		TMDBRateLimit:             38,
		TMDBRateWindowSeconds:     10,
		WorkerCount:               10,
		UserAgent:                 DefaultUserAgent,
		RequestTimeoutSeconds:     30,
		EnableLogging:             true,
		LogRetentionDays:          30,
		LogLevel:                  "info",
		LogFormat:                 "text",
		ServerPort:                7000,
		AddonID:                   "community.yourtvstreams",
		AddonName:                 "Your Series",
		LibraryGlob:               "organized_series_data*.json",
		CheckStreams:              true,
		StreamCheckTimeoutSeconds: 5,
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".your-series", "config.json"), nil
}

// Load reads the configuration from disk and applies environment overrides.
// A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads a single config file without consulting the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so booleans absent from the file keep their default.
	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.fillDefaults()
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func (cfg *Config) fillDefaults() {
	defaults := DefaultConfig()
	if cfg.PlaylistList == "" {
		cfg.PlaylistList = defaults.PlaylistList
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = defaults.OutputPath
	}
	if cfg.CachePath == "" {
		cfg.CachePath = defaults.CachePath
	}
	if cfg.TMDBLanguage == "" {
		cfg.TMDBLanguage = defaults.TMDBLanguage
	}
	if cfg.TMDBRateLimit == 0 {
		cfg.TMDBRateLimit = defaults.TMDBRateLimit
	}
	if cfg.TMDBRateWindowSeconds == 0 {
		cfg.TMDBRateWindowSeconds = defaults.TMDBRateWindowSeconds
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = defaults.WorkerCount
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
	if cfg.LogRetentionDays == 0 {
		cfg.LogRetentionDays = defaults.LogRetentionDays
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaults.LogFormat
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = defaults.ServerPort
	}
	if cfg.AddonID == "" {
		cfg.AddonID = defaults.AddonID
	}
	if cfg.AddonName == "" {
		cfg.AddonName = defaults.AddonName
	}
	if cfg.LibraryGlob == "" {
		cfg.LibraryGlob = defaults.LibraryGlob
	}
	if cfg.StreamCheckTimeoutSeconds == 0 {
		cfg.StreamCheckTimeoutSeconds = defaults.StreamCheckTimeoutSeconds
	}
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		cfg.TMDBAPIKey = v
	}
	if v := os.Getenv("OMDB_API_KEY"); v != "" {
		cfg.OMDBAPIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.ServerPort = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate reports settings that cannot produce a working run.
func (cfg *Config) Validate() error {
	if cfg.WorkerCount <= 0 {
		return fmt.Errorf("worker_count must be positive, got %d", cfg.WorkerCount)
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return fmt.Errorf("server_port out of range: %d", cfg.ServerPort)
	}
	if cfg.TMDBRateLimit <= 0 || cfg.TMDBRateWindowSeconds <= 0 {
		return fmt.Errorf("tmdb rate limit must be positive")
	}
	return nil
}

// RequestTimeout is the per-request deadline for outbound HTTP calls.
func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

func (cfg *Config) TMDBRateWindow() time.Duration {
	return time.Duration(cfg.TMDBRateWindowSeconds) * time.Second
}

func (cfg *Config) StreamCheckTimeout() time.Duration {
	return time.Duration(cfg.StreamCheckTimeoutSeconds) * time.Second
}

// Save writes the configuration to disk
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
