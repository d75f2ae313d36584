package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Advisor  AdvisorConfig
	Llm      LLMConfig
	SMTP     SMTPConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	FeedLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	Provider       string // "gotrue" or "local"
	GoTrueURL      string // e.g. https://<project>.supabase.co
	GoTrueAnonKey  string
	JWTSecret      string
	TokenTTL       time.Duration
	IdentityTTL    time.Duration // cache for resolved bearer tokens
	WelcomeSubject string
}

type AdvisorConfig struct {
	ExternalURL   string
	ExternalToken string
	Timeout       time.Duration
	MaxDuration   time.Duration // upper bound of a streaming completion
}

type LLMConfig struct {
	Provider    string // "openai", "huggingface", "ollama"
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			FeedLogFilePath:    getEnv("FEED_LOG_FILE_PATH", "logs/turn_feed.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			Provider:       getEnv("AUTH_PROVIDER", "gotrue"),
			GoTrueURL:      getEnv("SUPABASE_URL", ""),
			GoTrueAnonKey:  getEnv("SUPABASE_ANON_KEY", ""),
			JWTSecret:      getEnv("JWT_SECRET", "default_secret"),
			TokenTTL:       getEnvAsDuration("JWT_TTL", 24*time.Hour),
			IdentityTTL:    getEnvAsDuration("IDENTITY_CACHE_TTL", 5*time.Minute),
			WelcomeSubject: getEnv("WELCOME_EMAIL_SUBJECT", "Bienvenido a FinanceBot"),
		},
		Advisor: AdvisorConfig{
			ExternalURL:   getEnv("ADVISOR_URL", ""),
			ExternalToken: getEnv("ADVISOR_TOKEN", ""),
			Timeout:       getEnvAsDuration("ADVISOR_TIMEOUT", 60*time.Second),
			MaxDuration:   getEnvAsDuration("CHAT_MAX_DURATION", 30*time.Second),
		},
		Llm: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "openai"),
			Model:       getEnv("LLM_MODEL", "gpt-4-turbo"),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 0),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "FinanceBot"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
