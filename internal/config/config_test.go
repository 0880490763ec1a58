package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)

	cfg, err := Load("", "")
	requirer.NoError(err)

	asserter.Equal("item-service", cfg.AppName)
	asserter.Equal("item-servicev0.0.0", cfg.AppFullname())
	asserter.Equal(5001, cfg.HTTP.Port)
	asserter.Equal(5*time.Second, cfg.HTTP.ReadHeaderTimeout)
	asserter.Equal(StoreDriverMongoDB, cfg.Store.Driver)
	asserter.Equal("demo", cfg.MongoDB.Database)
	asserter.Equal([]string{"mongodb.demo.items"}, cfg.Kafka.Topics)
	asserter.False(cfg.ChangeRelay.Enabled)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("APP_HTTP_PORT", "6001")
	t.Setenv("STORE_DRIVER", StoreDriverStorm)
	t.Setenv("KAFKA_SEEDS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 6001, cfg.HTTP.Port)
	assert.Equal(t, StoreDriverStorm, cfg.Store.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Seeds)
}

func TestLoadFile(t *testing.T) {
	requirer := require.New(t)
	dir := t.TempDir()
	content := []byte("appName: items\nhttp:\n  port: 7001\nmongoDB:\n  database: inventory\n")
	requirer.NoError(os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir, "config")
	requirer.NoError(err)
	assert.Equal(t, "items", cfg.AppName)
	assert.Equal(t, 7001, cfg.HTTP.Port)
	assert.Equal(t, "inventory", cfg.MongoDB.Database)
	// values not in the file retain their env defaults
	assert.Equal(t, "v0.0.0", cfg.Version)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load("", "")
	require.Error(t, err)

	t.Setenv("STORE_DRIVER", StoreDriverStorm)
	t.Setenv("CHANGE_RELAY_ENABLED", "true")
	_, err = Load("", "")
	require.Error(t, err)
}
