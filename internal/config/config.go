package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Qdrant   QdrantConfig
	Gemini   GeminiConfig
	Redis    RedisConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Recorder RecorderConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// QdrantConfig points at the vocabulary index. An empty URL disables the
// embedding-augmented skill strategy.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
	MaxRetries int
}

// RedisConfig configures the embedding cache. An empty URL disables caching.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

type PipelineConfig struct {
	SkillStrategy       string
	NounPhrases         bool
	VocabularyPath      string
	VocabMatchThreshold float64
	MinTextLength       int
	MatchMode           string
	SimilarityThreshold float64
	EnrichEnabled       bool
	EnrichTimeout       time.Duration
}

type StorageConfig struct {
	MaxFileSize int64
}

type RecorderConfig struct {
	Concurrency int
	QueueSize   int
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "skill_matcher"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "skill_vocabulary"),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			MaxRetries: getEnvAsInt("GEMINI_MAX_RETRIES", 2),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
			TTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", "168h"),
		},
		Pipeline: PipelineConfig{
			SkillStrategy:       strings.ToLower(getEnv("SKILL_STRATEGY", "vocabulary")),
			NounPhrases:         getEnvAsBool("SKILL_NOUN_PHRASES", false),
			VocabularyPath:      getEnv("SKILL_VOCABULARY_PATH", ""),
			VocabMatchThreshold: getEnvAsFloat("VOCAB_MATCH_THRESHOLD", 0.75),
			MinTextLength:       getEnvAsInt("MIN_TEXT_LENGTH", 20),
			MatchMode:           strings.ToLower(getEnv("MATCH_MODE", "exact")),
			SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.6),
			EnrichEnabled:       getEnvAsBool("ENRICH_ENABLED", true),
			EnrichTimeout:       getEnvAsDuration("ENRICH_TIMEOUT", "20s"),
		},
		Storage: StorageConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Recorder: RecorderConfig{
			Concurrency: getEnvAsInt("RECORDER_CONCURRENCY", 2),
			QueueSize:   getEnvAsInt("RECORDER_QUEUE_SIZE", 100),
		},
		Log: LogConfig{
			JSON:  getEnvAsBool("LOG_JSON", false),
			Debug: getEnvAsBool("LOG_DEBUG", false),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
