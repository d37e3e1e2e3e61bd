package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

storage:
  type: "dynamodb"
  dynamodb_table: "fundraiser-tracker-test"
  aws_region: "us-east-1"

cache:
  enabled: true
  redis_addr: "redis:6379"
  ttl_seconds: 15

invites:
  ttl_days: 7

consistency:
  max_attempts: 3
  base_delay_ms: 50
  max_delay_ms: 500
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Test server config
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Test storage config
	assert.Equal(t, "dynamodb", cfg.Storage.Type)
	assert.Equal(t, "fundraiser-tracker-test", cfg.Storage.DynamoDBTable)
	assert.Equal(t, "us-east-1", cfg.Storage.AWSRegion)

	// Test cache config
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 15, cfg.Cache.TTLSeconds)

	// Test invite config
	assert.Equal(t, 7, cfg.Invites.TTLDays)

	// Test consistency config
	assert.Equal(t, 3, cfg.Consistency.MaxAttempts)
	assert.Equal(t, 50, cfg.Consistency.BaseDelayMS)
	assert.Equal(t, 500, cfg.Consistency.MaxDelayMS)
}

func TestLoadDefaults(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  dynamodb_table: "fundraiser-tracker"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults are applied
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "us-west-2", cfg.Storage.AWSRegion)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 30, cfg.Cache.TTLSeconds)
	assert.Equal(t, 14, cfg.Invites.TTLDays)
	assert.Equal(t, 5, cfg.Consistency.MaxAttempts)
	assert.Equal(t, 100, cfg.Consistency.BaseDelayMS)
	assert.Equal(t, 2000, cfg.Consistency.MaxDelayMS)
}

func TestLoadFromEnv(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  dynamodb_table: "file-table"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Set environment variables
	os.Setenv("DYNAMODB_TABLE", "env-table")
	os.Setenv("REDIS_ADDR", "env-redis:6379")
	defer func() {
		os.Unsetenv("DYNAMODB_TABLE")
		os.Unsetenv("REDIS_ADDR")
	}()

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// Environment variables should override file values
	assert.Equal(t, "env-table", cfg.Storage.DynamoDBTable)
	assert.Equal(t, "dynamodb", cfg.Storage.Type)
	assert.Equal(t, "env-redis:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 14, cfg.Invites.TTLDays)
}

func TestLoadUnreadableFile(t *testing.T) {
	// A present-but-malformed file is still an error
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [not a map"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromEnvWithoutFile(t *testing.T) {
	os.Setenv("REDIS_ADDR", "env-redis:6379")
	defer os.Unsetenv("REDIS_ADDR")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	// Defaults plus env overrides, no file needed
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "env-redis:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.Cache.Enabled)
}

func TestCacheTTL(t *testing.T) {
	cfg := CacheConfig{TTLSeconds: 45}
	assert.Equal(t, 45*time.Second, cfg.TTL())
}

func TestInviteTTL(t *testing.T) {
	cfg := InviteConfig{TTLDays: 14}
	assert.Equal(t, 14*24*time.Hour, cfg.TTL())
}
