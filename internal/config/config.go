package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"storefront/internal/logging"
)

var AppEnv Config

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string

	OpenAIKey            string
	OpenAIBaseURL        string
	OpenAIChatModel      string
	OpenAIEmbeddingModel string
	UpstreamTimeout      time.Duration

	UPIPayeeVPA  string
	UPIPayeeName string
	INRPerUSD    float64

	UploadDir string

	CORSAllowOrigins  []string
	KafkaBrokers      []string
	KafkaEventsTopic  string
	EventBufferSize   int
	ChatRatePerMinute int

	LogLevel  string
	LogFormat string
}

// LLMEnabled reports whether chat completions can be sent upstream.
func (c Config) LLMEnabled() bool {
	return c.OpenAIKey != ""
}

// EmbeddingsEnabled reports whether knowledge snippets get embedded.
func (c Config) EmbeddingsEnabled() bool {
	return c.OpenAIKey != ""
}

func Load() {
	if err := godotenv.Load(); err != nil {
		logging.Debug().Err(err).Msg(".env not loaded")
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() Config {
	return Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		MongoURI:       getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		DBName:         getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 60, time.Minute),

		AdminEmail:    strings.ToLower(getEnvOrDefault("ADMIN_EMAIL", "")),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", ""),
		AdminName:     getEnvOrDefault("ADMIN_NAME", "Store Admin"),

		OpenAIKey:            getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAIChatModel:      getEnvOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbeddingModel: getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		UpstreamTimeout:      getDurationEnv("UPSTREAM_TIMEOUT", 60, time.Second),

		UPIPayeeVPA:  getEnvOrDefault("UPI_PAYEE_VPA", ""),
		UPIPayeeName: getEnvOrDefault("UPI_PAYEE_NAME", ""),
		INRPerUSD:    getFloatEnv("INR_PER_USD", 83),

		UploadDir: getEnvOrDefault("UPLOAD_DIR", "./public"),

		CORSAllowOrigins:  getListEnv("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		KafkaBrokers:      getListEnv("KAFKA_BROKERS", nil),
		KafkaEventsTopic:  getEnvOrDefault("KAFKA_EVENTS_TOPIC", "storefront-events"),
		EventBufferSize:   getIntEnv("EVENT_BUFFER", 16),
		ChatRatePerMinute: getIntEnv("CHAT_RATE_PER_MINUTE", 30),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue)) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
