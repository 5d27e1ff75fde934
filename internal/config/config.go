package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Rate limiting
	RateLimitPerMinute int

	// Frontend
	FrontendURL string

	Pipeline PipelineConfig
}

// PipelineConfig is everything an extraction needs, server or CLI.
type PipelineConfig struct {
	// yt-dlp
	YtDlpPath       string
	TempDir         string
	CaptionTimeout  time.Duration
	MetadataTimeout time.Duration
	MetadataSource  string // "ytdlp" or "youtube"

	// Gemini AI
	GeminiAPIKey         string
	GeminiConcurrentReqs int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		DatabaseURL:        mustGetEnv("DATABASE_URL"),
		RedisURL:           mustGetEnv("REDIS_URL"),
		JWTSecret:          mustGetEnv("JWT_SECRET"),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		Pipeline:           loadPipeline(),
	}

	return cfg
}

// LoadPipeline reads only the extraction settings. None of them are
// required.
func LoadPipeline() PipelineConfig {
	godotenv.Load()
	return loadPipeline()
}

func loadPipeline() PipelineConfig {
	return PipelineConfig{
		YtDlpPath:            getEnvOrDefault("YTDLP_PATH", "yt-dlp"),
		TempDir:              getEnvOrDefault("TEMP_DIR", os.TempDir()),
		CaptionTimeout:       getEnvAsDurationOrDefault("CAPTION_TIMEOUT", 30*time.Second),
		MetadataTimeout:      getEnvAsDurationOrDefault("METADATA_TIMEOUT", 15*time.Second),
		MetadataSource:       strings.ToLower(getEnvOrDefault("METADATA_SOURCE", "ytdlp")),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go durations ("45s") or plain seconds.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
