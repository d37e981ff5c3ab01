package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.LLM.Provider != ProviderOpenAI || cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.DelayMS != 2500 {
		t.Fatalf("delay = %d", cfg.LLM.DelayMS)
	}
	if cfg.Dataset.Driver != "sqlite" {
		t.Fatalf("dataset = %+v", cfg.Dataset)
	}
	if cfg.Store.Path != "./conversations.db" {
		t.Fatalf("store = %+v", cfg.Store)
	}
}

func TestLoadPortForms(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}

	t.Setenv("PORT", "9001")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":9001" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadInvalidProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "bedrock")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadNegativeDelay(t *testing.T) {
	t.Setenv("LLM_DELAY_MS", "-5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative delay")
	}
}

func TestLoadLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("level = %v", cfg.Observability.LogLevel)
	}

	t.Setenv("LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
