package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("EVENT_BUFFER", "")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "storefront", cfg.DBName)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 83.0, cfg.INRPerUSD)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 16, cfg.EventBufferSize)
	assert.False(t, cfg.LLMEnabled())
	assert.False(t, cfg.EmbeddingsEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ACCESS_TOKEN_TTL", "15")
	t.Setenv("ADMIN_EMAIL", "  Admin@Shop.Example ")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("INR_PER_USD", "not-a-number")
	t.Setenv("EVENT_BUFFER", "64")

	cfg := FromEnv()

	assert.True(t, cfg.LLMEnabled())
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "admin@shop.example", cfg.AdminEmail)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 83.0, cfg.INRPerUSD)
	assert.Equal(t, 64, cfg.EventBufferSize)
}
