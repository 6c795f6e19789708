package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"ai-flashcards/internal/ai"
	"ai-flashcards/internal/ocr"
	"ai-flashcards/pkg/validator"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	defaultHFSummarizationModel = "facebook/bart-large-cnn"
	defaultHFQuestionModel      = "valhalla/t5-base-qg-hl"
	defaultOpenAIModel          = "gpt-4o-mini"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Env                   string `validate:"oneof=development production"`
	Port                  string `validate:"required,numeric"`
	Database              string `validate:"required"`
	UploadDir             string `validate:"required"`
	MaxUploadBytes        int64  `validate:"gt=0"`
	JWTSecret             string `validate:"required"`
	AI                    ai.Config
	OCR                   ocr.Config
	ChunkMaxChars         int `validate:"gt=0"`
	GenerationConcurrency int `validate:"gt=0"`
}

// Load reads configuration from the environment, providing sensible defaults,
// and makes sure the database and upload directories exist.
func Load() (Config, error) {
	// a missing .env is fine outside development
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return Config{}, err
	}
	if err := validator.ValidateStruct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure upload dir %s: %w", cfg.UploadDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure database dir %s: %w", cfg.Database, err)
	}
	return cfg, nil
}

func fromEnv() (Config, error) {
	var errs []error
	intEnv := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	floatEnv := func(key string, fallback float64) float64 {
		v, err := getEnvFloat(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationEnv := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	provider := getEnv("AI_PROVIDER", ai.ProviderHuggingFace)
	summarizationModel, questionModel := defaultHFSummarizationModel, defaultHFQuestionModel
	if provider == ai.ProviderOpenAI {
		summarizationModel, questionModel = defaultOpenAIModel, defaultOpenAIModel
	}

	cfg := Config{
		Env:            getEnv("APP_ENV", EnvDevelopment),
		Port:           getEnv("PORT", "8080"),
		Database:       getEnv("DATABASE_PATH", "./data/flashcards.db"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: int64(intEnv("MAX_UPLOAD_BYTES", 10<<20)),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AI: ai.Config{
			Provider:           provider,
			APIKey:             os.Getenv("AI_API_KEY"),
			BaseURL:            os.Getenv("AI_BASE_URL"),
			SummarizationModel: getEnv("SUMMARIZATION_MODEL", summarizationModel),
			QuestionModel:      getEnv("QUESTION_GENERATION_MODEL", questionModel),
			RequestsPerSecond:  floatEnv("AI_REQUESTS_PER_SECOND", 0),
			Burst:              intEnv("AI_BURST", 1),
			Timeout:            durationEnv("AI_TIMEOUT", 60*time.Second),
		},
		OCR: ocr.Config{
			Provider: getEnv("OCR_PROVIDER", ocr.ProviderZAI),
			APIKey:   os.Getenv("OCR_API_KEY"),
			BaseURL:  os.Getenv("OCR_BASE_URL"),
			Model:    os.Getenv("OCR_MODEL"),
			Workers:  intEnv("OCR_WORKERS", 2),
			Timeout:  durationEnv("OCR_TIMEOUT", 90*time.Second),
		},
		ChunkMaxChars:         intEnv("CHUNK_MAX_CHARS", 500),
		GenerationConcurrency: intEnv("GENERATION_CONCURRENCY", 4),
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
