package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "https://beatmiles-backend.azurewebsites.net/api" {
			t.Errorf("unexpected default base URL %s", config.API.BaseURL)
		}
		if config.Database.Path != "./beatmiles.db" {
			t.Errorf("expected database path ./beatmiles.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Display.DateFormat != "01/02/2006" {
			t.Errorf("expected date format 01/02/2006, got %s", config.Display.DateFormat)
		}
		if config.RequestTimeout() != 0 {
			t.Errorf("expected no timeout by default, got %v", config.RequestTimeout())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[api]
base_url = "http://localhost:5000/api"
timeout = 15

[server]
port = 8080

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "http://localhost:5000/api" {
			t.Errorf("expected base URL override, got %s", config.API.BaseURL)
		}
		if config.RequestTimeout() != 15*time.Second {
			t.Errorf("expected 15s timeout, got %v", config.RequestTimeout())
		}
		if config.Addr() != "127.0.0.1:8080" {
			t.Errorf("expected addr 127.0.0.1:8080, got %s", config.Addr())
		}
		if config.LogLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", config.LogLevel())
		}
		if config.Database.Path != "./beatmiles.db" {
			t.Errorf("expected missing keys to keep defaults, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvAPIURL, "http://api.test")
		t.Setenv(EnvDBPath, "/tmp/test.db")
		t.Setenv(EnvPort, "4000")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.API.BaseURL != "http://api.test" {
			t.Errorf("expected base URL from env, got %s", config.API.BaseURL)
		}
		if config.Database.Path != "/tmp/test.db" {
			t.Errorf("expected db path from env, got %s", config.Database.Path)
		}
		if config.Server.Port != 4000 {
			t.Errorf("expected port from env, got %d", config.Server.Port)
		}
	})

	t.Run("ApplyEnv Invalid Port", func(t *testing.T) {
		t.Setenv(EnvPort, "not-a-port")

		err := ApplyEnv(DefaultConfig())
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("BEATMILES_LOG_LEVEL=warn\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv(EnvLogLevel, "")
		os.Unsetenv(EnvLogLevel)

		if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}
		if got := os.Getenv(EnvLogLevel); got != "warn" {
			t.Errorf("expected BEATMILES_LOG_LEVEL=warn, got %q", got)
		}
	})
}
