package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultModelName    = "SamLowe/roberta-base-go_emotions"
	DefaultInferenceURL = "https://api-inference.huggingface.co/models/"
	devSecretKey        = "dev-secret-key-change-me"
)

type Config struct {
	ListenAddr   string
	DatabasePath string
	SecretKey    string
	TemplateDir  string
	LogLevel     string

	// Inference endpoint serving the pretrained emotion model.
	ModelName      string
	InferenceURL   string
	InferenceToken string

	// Dataset read by the evaluator.
	EvalCSV string

	// Dev is set when SECRET_KEY was not provided.
	Dev bool
}

// Load reads an optional .env file from the working directory and then the
// process environment. Values already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		ListenAddr:     valueOr(getenv("LISTEN_ADDR"), ":5000"),
		DatabasePath:   valueOr(getenv("DATABASE_PATH"), "site.db"),
		SecretKey:      getenv("SECRET_KEY"),
		TemplateDir:    valueOr(getenv("TEMPLATE_DIR"), "templates"),
		LogLevel:       valueOr(getenv("LOG_LEVEL"), "info"),
		ModelName:      valueOr(getenv("MODEL_NAME"), DefaultModelName),
		InferenceURL:   getenv("INFERENCE_URL"),
		InferenceToken: getenv("INFERENCE_TOKEN"),
		EvalCSV:        valueOr(getenv("EVAL_CSV"), "filtered_tweets.csv"),
	}

	if cfg.SecretKey == "" {
		cfg.SecretKey = devSecretKey
		cfg.Dev = true
	}
	if len(cfg.SecretKey) < 16 {
		return nil, fmt.Errorf("SECRET_KEY must be at least 16 characters")
	}

	if cfg.InferenceURL == "" {
		cfg.InferenceURL = DefaultInferenceURL + cfg.ModelName
	}
	if !strings.HasPrefix(cfg.InferenceURL, "http://") && !strings.HasPrefix(cfg.InferenceURL, "https://") {
		return nil, fmt.Errorf("unsupported INFERENCE_URL: %s", cfg.InferenceURL)
	}

	return cfg, nil
}

// DSN returns the sqlite3 connection string with foreign keys enforced.
func (c *Config) DSN() string {
	return c.DatabasePath + "?_foreign_keys=on"
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
