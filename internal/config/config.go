package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string

	// JWTSecret signs and verifies bearer tokens. An empty value is a
	// server misconfiguration: required auth endpoints report 500.
	JWTSecret string

	OpenAIKey string
	GroqKey   string
	GeminiKey string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string

	AllowedOrigins []string

	StorageBackend string // "sqlite", "memory" or "firestore"
	SQLitePath     string
	GCPProjectID   string

	RateLimitMax int // requests per 60s window
	UseMockLLM   bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads all env vars and builds the config.
func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		GroqKey:   getEnv("GROQ_API_KEY", ""),
		GeminiKey: getEnv("GEMINI_API_KEY", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:4200"),

		StorageBackend: getEnv("STORAGE_BACKEND", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "chat.db"),
		GCPProjectID:   getEnv("GCP_PROJECT", ""),

		RateLimitMax: getIntEnv("RATE_LIMIT_MAX", 10),
		UseMockLLM:   getBoolEnv("USE_MOCK_LLM", false),
	}

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:4200")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}
