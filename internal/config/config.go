// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Supported LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Config aggregates the configuration of the whole service.
type Config struct {
	Server        ServerConfig
	LLM           LLMConfig
	Dataset       DatasetConfig
	Store         StoreConfig
	Observability ObservabilityConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	observability, err := loadObservabilityConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:        server,
		LLM:           llm,
		Dataset:       loadDatasetConfig(),
		Store:         loadStoreConfig(),
		Observability: observability,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Accept ":8000" or "127.0.0.1:8000" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LLMConfig selects and configures the chat-completion provider.
type LLMConfig struct {
	Provider string
	DelayMS  int

	// OpenAI-compatible provider.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	Temperature   float64

	// Volcengine Ark provider.
	ArkAPIKey      string
	ArkAccessKey   string
	ArkSecretKey   string
	ArkBaseURL     string
	ArkRegion      string
	ArkTemperature *float64
	ArkMaxTokens   *int
}

func loadLLMConfig() (LLMConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return LLMConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q: want %q or %q", provider, ProviderOpenAI, ProviderArk)
	}

	delay := 2500
	if override, err := parseOptionalIntEnv("LLM_DELAY_MS"); err != nil {
		return LLMConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return LLMConfig{}, fmt.Errorf("invalid LLM_DELAY_MS value %d: must not be negative", *override)
		}
		delay = *override
	}

	temperature := 1.0
	if override, err := parseOptionalFloatEnv("LLM_TEMPERATURE"); err != nil {
		return LLMConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	arkTemperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return LLMConfig{}, err
	}
	arkMaxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		Provider:       provider,
		DelayMS:        delay,
		OpenAIAPIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:  getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com"),
		Model:          getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		Temperature:    temperature,
		ArkAPIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkBaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		ArkTemperature: arkTemperature,
		ArkMaxTokens:   arkMaxTokens,
	}, nil
}

// DatasetConfig points at the database the chat answers questions about.
type DatasetConfig struct {
	Name   string
	Driver string
	DSN    string
}

func loadDatasetConfig() DatasetConfig {
	return DatasetConfig{
		Name:   getEnvOrDefault("DATASET_NAME", "default"),
		Driver: getEnvOrDefault("DATASET_DRIVER", "sqlite"),
		DSN:    getEnvOrDefault("DATASET_DSN", "./data/data.sqlite"),
	}
}

// StoreConfig points at the conversation log database.
type StoreConfig struct {
	Path string
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{Path: getEnvOrDefault("CONVERSATIONS_DB", "./conversations.db")}
}

// ObservabilityConfig controls logging output.
type ObservabilityConfig struct {
	LogJSON  bool
	LogLevel slog.Level
}

func loadObservabilityConfig() (ObservabilityConfig, error) {
	logJSON, err := parseBoolEnv("LOG_JSON", false)
	if err != nil {
		return ObservabilityConfig{}, err
	}

	level := slog.LevelInfo
	switch raw := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")); raw {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return ObservabilityConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q", raw)
	}

	return ObservabilityConfig{LogJSON: logJSON, LogLevel: level}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
