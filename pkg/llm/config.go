package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the Messages API connection settings.
type Config struct {
	APIKey        string
	BaseURL       string
	PrimaryModel  string
	ResearchModel string
	MaxRetries    int
	Timeout       time.Duration
	Context1M     bool
}

// LoadConfigFromEnv loads LLM configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	maxRetries, err := strconv.Atoi(getEnvOrDefault("LLM_MAX_RETRIES", strconv.Itoa(DefaultMaxRetries)))
	if err != nil || maxRetries < 0 {
		return Config{}, fmt.Errorf("invalid LLM_MAX_RETRIES: %q", os.Getenv("LLM_MAX_RETRIES"))
	}
	timeoutSecs, err := strconv.Atoi(getEnvOrDefault("LLM_TIMEOUT_SECONDS", "300"))
	if err != nil || timeoutSecs <= 0 {
		return Config{}, fmt.Errorf("invalid LLM_TIMEOUT_SECONDS: %q", os.Getenv("LLM_TIMEOUT_SECONDS"))
	}

	return Config{
		APIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		BaseURL:       getEnvOrDefault("LLM_BASE_URL", defaultBaseURL),
		PrimaryModel:  getEnvOrDefault("LLM_PRIMARY_MODEL", "claude-sonnet-4-20250514"),
		ResearchModel: getEnvOrDefault("LLM_RESEARCH_MODEL", "claude-3-5-haiku-20241022"),
		MaxRetries:    maxRetries,
		Timeout:       time.Duration(timeoutSecs) * time.Second,
		Context1M:     getEnvOrDefault("CONTEXT_1M_ENABLED", "false") == "true",
	}, nil
}

// ContextWindow is the model context size used for usage reporting.
func (c Config) ContextWindow() int {
	if c.Context1M {
		return 1_000_000
	}
	return 200_000
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
