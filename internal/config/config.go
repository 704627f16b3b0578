package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string

	// LLM provider (OpenAI-compatible chat completions endpoint)
	LLMBaseURL           string
	LLMAPIKey            string
	ModelName            string
	Temperature          float64
	MaxTokens            int
	LLMRequestsPerSecond float64

	// Conversation context management
	HistoryTruncateThreshold int
	SummaryCacheTTL          time.Duration
	SummaryStorePath         string

	// Intake completion rule
	IntakeMinMemories int

	// Auth token lifetimes
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	PromptsPath    string
	AllowedOrigins string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8000"),
		DatabasePath: getEnv("DATABASE_PATH", "coach.db"),
		JWTSecret:    getEnv("JWT_SECRET", ""),

		LLMBaseURL:           getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:            getEnv("LLM_API_KEY", ""),
		ModelName:            getEnv("LLM_MODEL", "gpt-4o-mini"),
		Temperature:          getFloatEnv("LLM_TEMPERATURE", 0.7),
		MaxTokens:            getIntEnv("LLM_MAX_TOKENS", 2048),
		LLMRequestsPerSecond: getFloatEnv("LLM_REQUESTS_PER_SECOND", 2),

		HistoryTruncateThreshold: getIntEnv("HISTORY_TRUNCATE_THRESHOLD", 30),
		SummaryCacheTTL:          getDurationEnv("SUMMARY_CACHE_TTL", 300*time.Second),
		SummaryStorePath:         getEnv("SUMMARY_STORE_PATH", "conversation_summary.json"),

		IntakeMinMemories: getIntEnv("INTAKE_MIN_MEMORIES", 5),

		AccessTokenExpiry:  getDurationEnv("ACCESS_TOKEN_EXPIRY", 30*time.Minute),
		RefreshTokenExpiry: getDurationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),

		PromptsPath:    getEnv("PROMPTS_PATH", "prompts.json"),
		AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
