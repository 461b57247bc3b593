package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Sections.Dir != "./sube-seccion" {
		t.Errorf("unexpected sections dir %q", cfg.Sections.Dir)
	}
	if cfg.Storage.Driver != StorageMemory {
		t.Errorf("expected memory storage, got %q", cfg.Storage.Driver)
	}
	if cfg.LLM.MaxTokens != 4092 || cfg.LLM.Temperature != 0.7 {
		t.Errorf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if cfg.Timer.RestMinutes != 5 {
		t.Errorf("expected 5 rest minutes, got %d", cfg.Timer.RestMinutes)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("SECTIONS_EXTENSIONS", " .JSON, .yaml ,")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("SESSION_MAX_AGE", "3h")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Sections.Extensions, []string{".json", ".yaml"}) {
		t.Errorf("unexpected extensions %v", cfg.Sections.Extensions)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", cfg.LLM.Temperature)
	}
	if cfg.Cleanup.SessionMaxAge != 3*time.Hour {
		t.Errorf("expected 3h session max age, got %v", cfg.Cleanup.SessionMaxAge)
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("unexpected redis address %q", cfg.Redis.Address)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"postgres without dsn", map[string]string{"STORAGE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{"extension without dot", map[string]string{"SECTIONS_EXTENSIONS": "json"}},
		{"no llm concurrency", map[string]string{"LLM_MAX_CONCURRENT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for level, want := range tests {
		if got := (LogConfig{Level: level}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}
