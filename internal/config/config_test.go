package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
)

// allConfigKeys lists every env var that Load() reads.
var allConfigKeys = []string{
	"PORT",
	"KEYVAULT_LISTEN_ADDR",
	"KEYVAULT_KEYGEN_TIMEOUT",
	"KEYVAULT_INSECURE_SKIP_VERIFY",
	"KEYVAULT_STORE",
	"KEYVAULT_SEED_FILE",
	"KEYVAULT_CORS_ORIGINS",
	"KEYVAULT_LOG_FORMAT",
	"KEYVAULT_LOG_LEVEL",
}

// isolateConfigEnv saves and unsets all config env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8090", cfg.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.KeygenTimeout)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, model.StoreMemory, cfg.Store)
	assert.Equal(t, "", cfg.SeedFile)
	assert.Equal(t, []string{}, cfg.CORSOrigins)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PORT", "9443")
	t.Setenv("KEYVAULT_KEYGEN_TIMEOUT", "3s")
	t.Setenv("KEYVAULT_INSECURE_SKIP_VERIFY", "false")
	t.Setenv("KEYVAULT_STORE", "SQLite")
	t.Setenv("KEYVAULT_SEED_FILE", "/etc/keyvault/seeds.yaml")
	t.Setenv("KEYVAULT_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("KEYVAULT_LOG_FORMAT", "JSON")
	t.Setenv("KEYVAULT_LOG_LEVEL", "DEBUG")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9443", cfg.ListenAddr)
	assert.Equal(t, 3*time.Second, cfg.KeygenTimeout)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Equal(t, model.StoreSQLite, cfg.Store)
	assert.Equal(t, "/etc/keyvault/seeds.yaml", cfg.SeedFile)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ListenAddrOverridesPort(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PORT", "9443")
	t.Setenv("KEYVAULT_LISTEN_ADDR", "127.0.0.1:7000")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.ListenAddr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "PORT", value: "eighty"},
		{key: "PORT", value: "70000"},
		{key: "KEYVAULT_LISTEN_ADDR", value: "no-port"},
		{key: "KEYVAULT_KEYGEN_TIMEOUT", value: "soon"},
		{key: "KEYVAULT_KEYGEN_TIMEOUT", value: "-1s"},
		{key: "KEYVAULT_INSECURE_SKIP_VERIFY", value: "maybe"},
		{key: "KEYVAULT_STORE", value: "redis"},
		{key: "KEYVAULT_LOG_FORMAT", value: "xml"},
		{key: "KEYVAULT_LOG_LEVEL", value: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadSeeds_Default(t *testing.T) {
	creds, err := LoadSeeds("")

	require.NoError(t, err)
	require.NotEmpty(t, creds)
	for _, cred := range creds {
		assert.NoError(t, cred.Validate(), cred.Address)
	}
}

func TestLoadSeeds_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	doc := "devices:\n  - ip: 192.0.2.50\n    username: ops\n    password: \"p@ss:word\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	creds, err := LoadSeeds(path)

	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "192.0.2.50", creds[0].Address)
	assert.Equal(t, "ops", creds[0].Username)
	assert.Equal(t, "p@ss:word", creds[0].Password)
}

func TestLoadSeeds_MissingFile(t *testing.T) {
	_, err := LoadSeeds(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read seed file")
}

func TestParseSeeds_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "bad address", doc: "devices:\n  - ip: fw01\n    username: u\n    password: p\n", wantErr: model.ErrInvalidAddress},
		{name: "missing password", doc: "devices:\n  - ip: 192.0.2.1\n    username: u\n", wantErr: model.ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeeds([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := ParseSeeds([]byte("devices: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse seed file")
}

func TestParseSeeds_Empty(t *testing.T) {
	creds, err := ParseSeeds([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, creds)
}
