package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv sets environment variables for the duration of a test
func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for key, value := range values {
		t.Setenv(key, value)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":              "postgresql://localhost/atelier_test",
		"DB_DRIVER":                 "",
		"KAFKA_BROKERS":             "",
		"EXTRA_UNIT_PRICE":          "",
		"COMPLETED_VISIBILITY_DAYS": "",
		"LATE_WINDOW_DAYS":          "",
		"KAFKA_ORDERS_TOPIC":        "",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2000.0, cfg.ExtraUnitPrice)
	assert.Equal(t, 4, cfg.CompletedVisibilityDays)
	assert.Equal(t, 3, cfg.LateWindowDays)
	assert.Equal(t, "atelier.orders", cfg.KafkaOrdersTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 96*time.Hour, cfg.CompletedVisibility())
	assert.Same(t, cfg, GetConfig())
}

func TestLoadParsesLists(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":         "file::memory:",
		"DB_DRIVER":            "SQLite",
		"KAFKA_BROKERS":        "kafka-1:9092, kafka-2:9092 ,",
		"CORS_ALLOWED_ORIGINS": "https://atelier.example.com",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://atelier.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsInvalidNumbers(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":     "postgresql://localhost/atelier_test",
		"EXTRA_UNIT_PRICE": "two thousand",
	})

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "EXTRA_UNIT_PRICE")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseURL:             "postgresql://localhost/atelier_test",
			DBDriver:                "postgres",
			CompletedVisibilityDays: 4,
			LateWindowDays:          3,
			Timezone:                "UTC",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid configuration", mutate: func(c *Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "oracle" }, wantErr: "DB_DRIVER"},
		{name: "negative extra price", mutate: func(c *Config) { c.ExtraUnitPrice = -1 }, wantErr: "EXTRA_UNIT_PRICE"},
		{name: "zero completed window", mutate: func(c *Config) { c.CompletedVisibilityDays = 0 }, wantErr: "COMPLETED_VISIBILITY_DAYS"},
		{name: "negative late window", mutate: func(c *Config) { c.LateWindowDays = -1 }, wantErr: "LATE_WINDOW_DAYS"},
		{name: "unknown timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "APP_TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := &Config{GoEnv: "test"}
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}
