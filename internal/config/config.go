package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	MinMatchScore      float64
	MaxMatches         int
	OutlierIQRMultiple float64
	ScoreWorkers       int

	WeightsTTLSec int

	AIEnabled      bool
	AIBaseURL      string
	AIAPIKey       string
	AIModel        string
	AITimeoutMs    int
	AIRateLimitRPS int
	AIMaxTokens    int
	AITemperature  float64

	DistanceBaseURL   string
	DistanceTimeoutMs int

	HTTPAddr string

	WorkerIntervalSec int
	WorkerBatchSize   int
	WorkerLearnEveryN int
	WorkerAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		MinMatchScore:      getEnvFloat("MATCH_MIN_SCORE", 0.55),
		MaxMatches:         getEnvInt("MATCH_MAX_MATCHES", 10),
		OutlierIQRMultiple: getEnvFloat("MATCH_OUTLIER_IQR_MULTIPLE", 1.5),
		ScoreWorkers:       getEnvInt("MATCH_SCORE_WORKERS", 8),

		WeightsTTLSec: getEnvInt("WEIGHTS_TTL_SEC", 300),

		AIEnabled:      getEnvBool("AI_ENABLED", false),
		AIBaseURL:      getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:       getEnv("AI_API_KEY", ""),
		AIModel:        getEnv("AI_MODEL", "gpt-4o-mini"),
		AITimeoutMs:    getEnvInt("AI_TIMEOUT_MS", 30000),
		AIRateLimitRPS: getEnvInt("AI_RATE_LIMIT_RPS", 2),
		AIMaxTokens:    getEnvInt("AI_MAX_TOKENS", 600),
		AITemperature:  getEnvFloat("AI_TEMPERATURE", 0.2),

		DistanceBaseURL:   getEnv("DISTANCE_BASE_URL", ""),
		DistanceTimeoutMs: getEnvInt("DISTANCE_TIMEOUT_MS", 10000),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		WorkerIntervalSec: getEnvInt("WORKER_INTERVAL_SEC", 30),
		WorkerBatchSize:   getEnvInt("WORKER_BATCH_SIZE", 20),
		WorkerLearnEveryN: getEnvInt("WORKER_LEARN_EVERY_N", 20),
		WorkerAutoExport:  getEnvBool("WORKER_AUTO_EXPORT", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
