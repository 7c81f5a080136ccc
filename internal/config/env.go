package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	RedisAddr    string
	UploadDir    string
	ServerURL    string
	Port         string
	AIAPIKey     string
	EmbedModel   string
	GenModel     string
	AwsRegion    string
	APIKeyTable  string
	SlackToken   string
	SlackChannel string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	MaxRetries   int
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		UploadDir:    getEnv("UPLOAD_DIRECTORY", "./uploads"),
		ServerURL:    getEnv("SERVER_URL", "http://localhost:8000"),
		Port:         getEnv("PORT", "8000"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		AwsRegion:    getEnv("AWS_REGION", "us-west-1"),
		APIKeyTable:  getEnv("API_KEY_TABLE", "DOCUCHAT_API_KEYS"),
		SlackToken:   getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannel: getEnv("SLACK_CHANNEL", "#api-notifs"),
		ChunkSize:    getEnvInt("CHUNK_SIZE", 4000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),
		TopK:         getEnvInt("RETRIEVAL_TOP_K", 4),
		MaxRetries:   getEnvInt("JOB_MAX_RETRIES", 3),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
