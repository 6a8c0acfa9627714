package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by SEARCHMIND_ENV (or .env by default),
// then its .secret sidecar if present. Every setting is a flat env var read
// through the getters below.
func Load() error {
	envFile := os.Getenv("SEARCHMIND_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment may already be set.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey is the static bearer key for /v1 routes. Empty disables auth.
func APIKey() string {
	return os.Getenv("API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// LLMProvider returns the configured inference provider.
// Valid values: gemini, openai, anthropic, mock
func LLMProvider() string {
	return getString("LLM_PROVIDER", "gemini")
}

// LLMModel overrides the provider's default model when set.
func LLMModel() string {
	return os.Getenv("LLM_MODEL")
}

// LLMAPIKey returns the API key for the configured inference provider.
func LLMAPIKey() string {
	return providerKey(LLMProvider())
}

// EmbeddingProvider returns the configured embedding provider.
// Valid values: openai, gemini, mock
func EmbeddingProvider() string {
	return getString("EMBEDDING_PROVIDER", "openai")
}

func EmbeddingAPIKey() string {
	return providerKey(EmbeddingProvider())
}

// EmbeddingCacheSize is the number of embeddings kept in memory. Zero
// disables the cache.
func EmbeddingCacheSize() int {
	return getInt("EMBEDDING_CACHE_SIZE", 10000)
}

func providerKey(provider string) string {
	switch provider {
	case "anthropic":
		return AnthropicAPIKey()
	case "gemini":
		return GeminiAPIKey()
	case "openai":
		return OpenAIAPIKey()
	default:
		return ""
	}
}

// TurnTimeout bounds routing plus execution of one chat turn.
func TurnTimeout() time.Duration {
	return getDuration("TURN_TIMEOUT", 3*time.Minute)
}

func AgentTimeout() time.Duration {
	return getDuration("AGENT_TIMEOUT", 60*time.Second)
}

func AgentMaxParallel() int {
	return getInt("AGENT_MAX_PARALLEL", 4)
}

func MaxToolRounds() int {
	return getInt("MAX_TOOL_ROUNDS", 5)
}

func SleepCycleInterval() time.Duration {
	return getDuration("SLEEP_CYCLE_INTERVAL", 6*time.Hour)
}

// SyncSource selects where analytics rows come from.
// Valid values: api, bigquery, none
func SyncSource() string {
	return getString("SYNC_SOURCE", "api")
}

// GoogleCredentialsFile points at a service account JSON. Empty means
// application default credentials.
func GoogleCredentialsFile() string {
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
}

func BigQueryProject() string {
	return os.Getenv("BIGQUERY_PROJECT")
}

// BigQueryDataset is the Search Console bulk export dataset.
func BigQueryDataset() string {
	return getString("BIGQUERY_DATASET", "searchconsole")
}

// RateLimitRPS returns requests per second per client IP.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

func RateLimitBurst() int {
	return getInt("RATE_LIMIT_BURST", 20)
}

// LogLevel returns the log level (debug, info, warn, error).
func LogLevel() string {
	return getString("LOG_LEVEL", "info")
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getInt returns def for unset, malformed or non-positive values.
func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// getDuration accepts Go duration strings ("90s", "6h").
func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
