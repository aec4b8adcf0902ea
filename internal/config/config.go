// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr         string
	KeygenTimeout      time.Duration
	InsecureSkipVerify bool
	Store              model.StoreKind
	SeedFile           string
	CORSOrigins        []string
	LogFormat          string
	LogLevel           string
}

// Load reads configuration from environment variables and returns a validated Config.
// PORT (8090) picks the listen port on all interfaces; KEYVAULT_LISTEN_ADDR overrides
// the whole address. Other optional variables with defaults:
// KEYVAULT_KEYGEN_TIMEOUT (10s), KEYVAULT_INSECURE_SKIP_VERIFY (true),
// KEYVAULT_STORE (memory), KEYVAULT_SEED_FILE (embedded seed set),
// KEYVAULT_CORS_ORIGINS (all), KEYVAULT_LOG_FORMAT (text), KEYVAULT_LOG_LEVEL (info).
func Load() (*Config, error) {
	port := "8090"
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("PORT has invalid value %q: must be 1-65535", v)
		}
		port = v
	}

	listenAddr := net.JoinHostPort("0.0.0.0", port)
	if v, ok := os.LookupEnv("KEYVAULT_LISTEN_ADDR"); ok && v != "" {
		if _, _, err := net.SplitHostPort(v); err != nil {
			return nil, fmt.Errorf("KEYVAULT_LISTEN_ADDR has invalid address %q: %w", v, err)
		}
		listenAddr = v
	}

	timeout := 10 * time.Second
	if v, ok := os.LookupEnv("KEYVAULT_KEYGEN_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("KEYVAULT_KEYGEN_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("KEYVAULT_KEYGEN_TIMEOUT must be positive, got %s", parsed)
		}
		timeout = parsed
	}

	insecure := true
	if v, ok := os.LookupEnv("KEYVAULT_INSECURE_SKIP_VERIFY"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("KEYVAULT_INSECURE_SKIP_VERIFY has invalid bool %q: %w", v, err)
		}
		insecure = parsed
	}

	store := model.StoreMemory
	if v, ok := os.LookupEnv("KEYVAULT_STORE"); ok && v != "" {
		switch kind := model.StoreKind(strings.ToLower(v)); kind {
		case model.StoreMemory, model.StoreSQLite:
			store = kind
		default:
			return nil, fmt.Errorf("KEYVAULT_STORE has invalid value %q: want memory or sqlite", v)
		}
	}

	var origins []string
	if v, ok := os.LookupEnv("KEYVAULT_CORS_ORIGINS"); ok && v != "" {
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	if origins == nil {
		origins = []string{}
	}

	logFormat := "text"
	if v, ok := os.LookupEnv("KEYVAULT_LOG_FORMAT"); ok && v != "" {
		switch strings.ToLower(v) {
		case "text", "json":
			logFormat = strings.ToLower(v)
		default:
			return nil, fmt.Errorf("KEYVAULT_LOG_FORMAT has invalid value %q: want text or json", v)
		}
	}

	logLevel := "info"
	if v, ok := os.LookupEnv("KEYVAULT_LOG_LEVEL"); ok && v != "" {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "warning", "error":
			logLevel = strings.ToLower(v)
		default:
			return nil, fmt.Errorf("KEYVAULT_LOG_LEVEL has invalid value %q: want debug, info, warn or error", v)
		}
	}

	return &Config{
		ListenAddr:         listenAddr,
		KeygenTimeout:      timeout,
		InsecureSkipVerify: insecure,
		Store:              store,
		SeedFile:           os.Getenv("KEYVAULT_SEED_FILE"),
		CORSOrigins:        origins,
		LogFormat:          logFormat,
		LogLevel:           logLevel,
	}, nil
}
