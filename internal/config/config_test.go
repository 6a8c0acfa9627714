package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "LLM_PROVIDER", "TURN_TIMEOUT", "AGENT_MAX_PARALLEL", "RATE_LIMIT_RPS", "EMBEDDING_CACHE_SIZE"} {
		t.Setenv(k, "")
	}

	if got := ServerAddr(); got != ":8080" {
		t.Errorf("ServerAddr() = %q, want :8080", got)
	}
	if got := LLMProvider(); got != "gemini" {
		t.Errorf("LLMProvider() = %q, want gemini", got)
	}
	if got := TurnTimeout(); got != 3*time.Minute {
		t.Errorf("TurnTimeout() = %v, want 3m", got)
	}
	if got := AgentMaxParallel(); got != 4 {
		t.Errorf("AgentMaxParallel() = %d, want 4", got)
	}
	if got := RateLimitRPS(); got != 100 {
		t.Errorf("RateLimitRPS() = %v, want 100", got)
	}
	if got := EmbeddingCacheSize(); got != 10000 {
		t.Errorf("EmbeddingCacheSize() = %d, want 10000", got)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("TURN_TIMEOUT", "90s")
	t.Setenv("AGENT_TIMEOUT", "not-a-duration")
	t.Setenv("AGENT_MAX_PARALLEL", "-2")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	if got := TurnTimeout(); got != 90*time.Second {
		t.Errorf("TurnTimeout() = %v, want 90s", got)
	}
	if got := AgentTimeout(); got != 60*time.Second {
		t.Errorf("AgentTimeout() = %v, want default 60s", got)
	}
	if got := AgentMaxParallel(); got != 4 {
		t.Errorf("AgentMaxParallel() = %d, want default 4", got)
	}
	if got := LLMAPIKey(); got != "sk-ant" {
		t.Errorf("LLMAPIKey() = %q, want sk-ant", got)
	}
}

func TestLoad_SecretSidecar(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	if err := os.WriteFile(env, []byte("LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env+".secret", []byte("API_KEY=from-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SEARCHMIND_ENV", env)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("API_KEY", "")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("API_KEY")

	if err := Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := LogLevel(); got != "debug" {
		t.Errorf("LogLevel() = %q, want debug", got)
	}
	if got := APIKey(); got != "from-secret" {
		t.Errorf("APIKey() = %q, want from-secret", got)
	}
}
