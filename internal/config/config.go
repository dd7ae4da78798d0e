package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vbonduro/mealmate/internal/domain"
)

const (
	BackendOpenAI = "openai"
	BackendClaude = "claude"
	BackendOllama = "ollama"
)

// Config is read from an optional YAML file named by MEALMATE_CONFIG and then
// from the environment, which wins.
type Config struct {
	ListenAddr         string `yaml:"listen_addr"`
	DBPath             string `yaml:"db_path"`
	PhotoPath          string `yaml:"photo_path"`
	VisionBackend      string `yaml:"vision_backend"`
	OpenAIAPIKey       string `yaml:"openai_api_key"`
	OpenAIModel        string `yaml:"openai_model"`
	OpenAIBaseURL      string `yaml:"openai_base_url"`
	ClaudeAPIKey       string `yaml:"claude_api_key"`
	ClaudeModel        string `yaml:"claude_model"`
	ClaudeBaseURL      string `yaml:"claude_base_url"`
	OllamaHost         string `yaml:"ollama_host"`
	OllamaModel        string `yaml:"ollama_model"`
	SpoonacularAPIKey  string `yaml:"spoonacular_api_key"`
	SpoonacularBaseURL string `yaml:"spoonacular_base_url"`
	LogLevel           string `yaml:"log_level"`
	LogFile            string `yaml:"log_file"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:         ":8080",
		DBPath:             "/data/mealmate.db",
		PhotoPath:          "/data/photos",
		VisionBackend:      BackendOpenAI,
		OpenAIModel:        "gpt-4o",
		ClaudeModel:        "claude-opus-4-6",
		OllamaHost:         "http://localhost:11434",
		OllamaModel:        "llava",
		SpoonacularBaseURL: "https://api.spoonacular.com",
		LogLevel:           "info",
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("MEALMATE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.PhotoPath = getEnv("PHOTO_LOCAL_PATH", cfg.PhotoPath)
	cfg.VisionBackend = getEnv("VISION_BACKEND", cfg.VisionBackend)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.ClaudeAPIKey = getEnv("CLAUDE_API_KEY", cfg.ClaudeAPIKey)
	cfg.ClaudeModel = getEnv("CLAUDE_MODEL", cfg.ClaudeModel)
	cfg.ClaudeBaseURL = getEnv("CLAUDE_BASE_URL", cfg.ClaudeBaseURL)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OllamaModel = getEnv("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.SpoonacularAPIKey = getEnv("SPOONACULAR_API_KEY", cfg.SpoonacularAPIKey)
	cfg.SpoonacularBaseURL = getEnv("SPOONACULAR_BASE_URL", cfg.SpoonacularBaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	switch cfg.VisionBackend {
	case BackendOpenAI, BackendClaude, BackendOllama:
	default:
		return nil, fmt.Errorf("unknown VISION_BACKEND %q", cfg.VisionBackend)
	}

	return cfg, nil
}

// Warnings lists API keys the selected backends need but that are unset. The
// server still starts; calls that need a missing key fail individually.
func (c *Config) Warnings() []error {
	var warnings []error
	switch c.VisionBackend {
	case BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			warnings = append(warnings, &domain.ConfigurationError{Key: "OPENAI_API_KEY"})
		}
	case BackendClaude:
		if c.ClaudeAPIKey == "" {
			warnings = append(warnings, &domain.ConfigurationError{Key: "CLAUDE_API_KEY"})
		}
	}
	if c.SpoonacularAPIKey == "" {
		warnings = append(warnings, &domain.ConfigurationError{Key: "SPOONACULAR_API_KEY"})
	}
	return warnings
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
