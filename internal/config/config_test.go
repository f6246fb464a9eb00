package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.HTTPAddr)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Fatalf("unexpected provider: %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4" || cfg.LLM.MaxTokens != 150 || cfg.LLM.Temperature != 0 {
		t.Fatalf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if cfg.LLM.MaxAttempts != 1 {
		t.Fatalf("retries must be off by default, got %d attempts", cfg.LLM.MaxAttempts)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LLM_PROVIDER", "HTTP")
	t.Setenv("OPENAI_BASE_URL", "https://openrouter.ai/api/v1/")
	t.Setenv("LLM_MAX_ATTEMPTS", "3")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "5s")
	t.Setenv("GEMINI_BASE_URL", "http://127.0.0.1:9999/")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.HTTPAddr)
	}
	if cfg.LLM.Provider != ProviderHTTP {
		t.Fatalf("unexpected provider: %s", cfg.LLM.Provider)
	}
	// Хвостовой слэш обрезается, чтобы не получить //chat/completions.
	if cfg.LLM.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected base url: %s", cfg.LLM.BaseURL)
	}
	if cfg.LLM.MaxAttempts != 3 {
		t.Fatalf("unexpected attempts: %d", cfg.LLM.MaxAttempts)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout)
	}
	if cfg.LLM.Gemini.BaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("unexpected gemini base url: %s", cfg.LLM.Gemini.BaseURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dimconv.yaml")
	content := "llm_model: gpt-4o-mini\nlog_level: DEBUG\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"HTTP_CLIENT_TIMEOUT": "soon",
		"LLM_PROVIDER":        "carrier-pigeon",
		"LLM_MAX_TOKENS":      "0",
		"LLM_MAX_ATTEMPTS":    "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(New(), ""); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}
