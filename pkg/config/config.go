package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Model    ModelConfig    `mapstructure:"model"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type ModelConfig struct {
	Provider string        `mapstructure:"provider"` // gemini or openai
	Timeout  time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"` // file, memory or postgres
	Path    string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

type AuditConfig struct {
	LogFile string `mapstructure:"log_file"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("model.provider", "gemini")
	v.SetDefault("model.timeout", "60s")
	v.SetDefault("gemini.model", "gemini-1.5-flash-latest")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1024)
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "user_data.json")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("chat.history_limit", 6)
	v.SetDefault("audit.log_file", "bot_logs.txt")

	// Enable environment variable support
	v.AutomaticEnv()

	// The config file is optional; secrets usually arrive via env.
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if provider := v.GetString("MODEL_PROVIDER"); provider != "" {
		config.Model.Provider = provider
	}

	return &config, nil
}

// Validate checks the required startup secrets. Missing secrets are the
// only fatal misconfiguration.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "gemini":
		if c.Telegram.Token == "" || c.Gemini.APIKey == "" {
			return errors.New("TELEGRAM_TOKEN or GEMINI_API_KEY not set")
		}
	case "openai":
		if c.Telegram.Token == "" || c.OpenAI.APIKey == "" {
			return errors.New("TELEGRAM_TOKEN or OPENAI_API_KEY not set")
		}
	default:
		return fmt.Errorf("unknown model provider: %q", c.Model.Provider)
	}
	return nil
}
