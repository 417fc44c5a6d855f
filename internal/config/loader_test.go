package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  host: "localhost"
  port: 8080
grpc:
  host: "localhost"
  port: 9090
pipeline:
  num_workers: 4
  buffer_capacity: 1024
  num_reactions_cutoff: 5
  num_product_atoms_cutoff: 50
chemspace:
  cache_dir: "/var/lib/prexsyn/chemspace"
redis:
  addr: "localhost:6379"
kafka:
  brokers: ["localhost:9092"]
  group_id: "prexsyn-group"
minio:
  endpoint: "localhost:9000"
  bucket: "prexsyn-chemspace"
run_ledger:
  host: "localhost"
  port: 5432
  user: "prexsyn"
  password: "secret"
  db_name: "prexsyn"
  max_conns: 10
log:
  level: "info"
  format: "json"
`

func createTempConfigFile(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func setEnvVars(t *testing.T, vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	})
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	assert.Error(t, err)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "invalid_yaml: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	invalidConfig := `
server:
  port: 0
`
	path := createTempConfigFile(t, invalidConfig)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"PREXSYN_SERVER_PORT": "9999",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"PREXSYN_RUN_LEDGER_HOST": "db-host",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db-host", cfg.RunLedger.Host)
}

func TestLoad_DefaultValuesApplied(t *testing.T) {
	minimalYAML := `
chemspace:
  cache_dir: "/tmp/chemspace"
redis:
  addr: "localhost:6379"
kafka:
  brokers: ["localhost:9092"]
minio:
  endpoint: "localhost:9000"
  bucket: "bucket"
run_ledger:
  user: "prexsyn"
  db_name: "prexsyn"
`
	path := createTempConfigFile(t, minimalYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultPipelineNumWorkers, cfg.Pipeline.NumWorkers)
}

func TestMustLoad_Success(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() {
		MustLoad(path)
	})
}

func TestMustLoad_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad("non_existent.yaml")
	})
}

func TestWatch_InvokesOnChangeOnValidEdit(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 1)
	Watch(path, func(cfg *Config) {
		changed <- cfg
	})

	updated := validConfigYAML + "\n"
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	select {
	case cfg := <-changed:
		assert.NotNil(t, cfg)
	case <-time.After(2 * time.Second):
		t.Skip("fsnotify did not fire within the timeout on this filesystem")
	}
}
