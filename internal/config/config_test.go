package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "/api/v1", cfg.APIBasePath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	assert.Error(t, cfg.Validate())
}

func TestValidate_BadBasePath(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("API_BASE_PATH", "api/v1")

	cfg := Load()
	assert.Error(t, cfg.Validate())
}

func TestSplitCSV(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")

	cfg := Load()
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}
