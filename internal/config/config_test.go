package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// isolate points HOME at a temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfigFile, "")
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	return home
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.WorkerCount != 10 {
		t.Errorf("WorkerCount = %d, want 10", cfg.WorkerCount)
	}
	if cfg.CachePath != "id_cache.json" || cfg.OutputPath != "organized_series_data.json" || cfg.PlaylistList != "m3u_series_list.txt" {
		t.Errorf("unexpected default paths: %+v", cfg)
	}
	if cfg.ServerPort != 7000 {
		t.Errorf("ServerPort = %d, want 7000", cfg.ServerPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestConfigPath(t *testing.T) {
	isolate(t)

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("ConfigPath() = %v, want absolute path", path)
	}
	if filepath.Base(filepath.Dir(path)) != ".your-series" || filepath.Base(path) != "config.json" {
		t.Errorf("ConfigPath() = %v, want ~/.your-series/config.json", path)
	}

	t.Setenv(EnvConfigFile, "/etc/your-series.yaml")
	path, _ = ConfigPath()
	if path != "/etc/your-series.yaml" {
		t.Errorf("ConfigPath() with env = %v", path)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".your-series")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := `{"tmdb_api_key": "abc", "worker_count": 4, "check_streams": false}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := DefaultConfig()
	want.TMDBAPIKey = "abc"
	want.WorkerCount = 4
	want.CheckStreams = false
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAML(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "series.yaml")
	data := "tmdb_api_key: yamlkey\noutput_path: out.json\nserver_port: 8080\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TMDBAPIKey != "yamlkey" || cfg.OutputPath != "out.json" || cfg.ServerPort != 8080 {
		t.Errorf("unexpected yaml config: %+v", cfg)
	}
	if cfg.CachePath != "id_cache.json" {
		t.Errorf("CachePath = %q, want default", cfg.CachePath)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)

	if _, err := Load(); err == nil {
		t.Fatal("Load() with invalid JSON should fail")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TMDB_API_KEY", "env-tmdb")
	t.Setenv("OMDB_API_KEY", "env-omdb")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TMDBAPIKey != "env-tmdb" || cfg.OMDBAPIKey != "env-omdb" || cfg.ServerPort != 9000 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.TMDBAPIKey = "saved"
	cfg.WorkerCount = 3
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(*Config)
		wantErr bool
	}{
		"defaults":      {mutate: func(*Config) {}},
		"zero workers":  {mutate: func(c *Config) { c.WorkerCount = 0 }, wantErr: true},
		"negative port": {mutate: func(c *Config) { c.ServerPort = -1 }, wantErr: true},
		"huge port":     {mutate: func(c *Config) { c.ServerPort = 70000 }, wantErr: true},
		"no rate limit": {mutate: func(c *Config) { c.TMDBRateLimit = 0 }, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout() = %v", cfg.RequestTimeout())
	}
	if cfg.TMDBRateWindow() != 10*time.Second {
		t.Errorf("TMDBRateWindow() = %v", cfg.TMDBRateWindow())
	}
	if cfg.StreamCheckTimeout() != 5*time.Second {
		t.Errorf("StreamCheckTimeout() = %v", cfg.StreamCheckTimeout())
	}
}
