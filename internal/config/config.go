package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	RequestTimeout time.Duration
	FormatsFile    string
	MetricsEnabled bool
	LLM            LLMConfig
}

// LLMConfig описывает внешний провайдер chat-completion.
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxAttempts int
	Gemini      GeminiConfig
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New возвращает viper с дефолтами и чтением переменных окружения.
// Ключи плоские: http_addr читается из HTTP_ADDR.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_client_timeout", "30s")
	v.SetDefault("formats_file", "")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("llm_provider", ProviderOpenAI)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm_model", "gpt-4")
	v.SetDefault("llm_temperature", 0.0)
	v.SetDefault("llm_max_tokens", 150)
	v.SetDefault("llm_max_attempts", 1)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("gemini_base_url", "")
	v.AutomaticEnv()
	return v
}

// Load подтягивает .env (если есть), необязательный YAML-файл и собирает Config.
func Load(v *viper.Viper, file string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	cfg.HTTPAddr = v.GetString("http_addr")
	cfg.LogLevel = strings.ToLower(v.GetString("log_level"))
	cfg.FormatsFile = v.GetString("formats_file")
	cfg.MetricsEnabled = v.GetBool("metrics_enabled")

	reqTimeout, err := parseDuration(v.GetString("http_client_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	cfg.LLM = LLMConfig{
		Provider:    strings.ToLower(v.GetString("llm_provider")),
		APIKey:      v.GetString("openai_api_key"),
		BaseURL:     strings.TrimRight(v.GetString("openai_base_url"), "/"),
		Model:       v.GetString("llm_model"),
		Temperature: float32(v.GetFloat64("llm_temperature")),
		MaxTokens:   v.GetInt("llm_max_tokens"),
		MaxAttempts: v.GetInt("llm_max_attempts"),
		Gemini: GeminiConfig{
			APIKey:  v.GetString("gemini_api_key"),
			BaseURL: strings.TrimRight(v.GetString("gemini_base_url"), "/"),
			Model:   v.GetString("gemini_model"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderHTTP, ProviderGemini:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" && c.LLM.Provider != ProviderGemini {
		return errors.New("LLM_MODEL is required")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1, got %d", c.LLM.MaxAttempts)
	}
	return nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}
