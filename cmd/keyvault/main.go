package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	deviceadapter "github.com/ericfisherdev/keyvault/internal/adapter/driven/device"
	memoryadapter "github.com/ericfisherdev/keyvault/internal/adapter/driven/memory"
	sqliteadapter "github.com/ericfisherdev/keyvault/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/keyvault/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/keyvault/internal/adapter/driving/web"
	"github.com/ericfisherdev/keyvault/internal/application"
	"github.com/ericfisherdev/keyvault/internal/config"
	"github.com/ericfisherdev/keyvault/internal/domain/model"
	"github.com/ericfisherdev/keyvault/internal/domain/port/driven"
	"github.com/ericfisherdev/keyvault/internal/logging"
	"github.com/ericfisherdev/keyvault/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store", cfg.Store,
		"keygen_timeout", cfg.KeygenTimeout,
		"insecure_skip_verify", cfg.InsecureSkipVerify,
	)
	if cfg.InsecureSkipVerify {
		slog.Warn("TLS certificate verification disabled for device connections")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the credential store.
	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. Wire adapters and the vault service.
	exchanger := deviceadapter.NewClient(deviceadapter.Options{
		Timeout:            cfg.KeygenTimeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Logger:             logger,
	})
	recorder := metrics.New()
	vault := application.NewVaultService(store, exchanger, logger, application.WithRecorder(recorder))

	// 5. Seed the vault.
	seeds, err := config.LoadSeeds(cfg.SeedFile)
	if err != nil {
		return err
	}
	if err := vault.Seed(ctx, seeds); err != nil {
		return err
	}
	slog.Info("vault seeded", "devices", len(seeds), "seed_file", cfg.SeedFile)

	// 6. Create HTTP handlers and the router.
	apiHandler := httphandler.NewHandler(vault, logger)
	webHandler := webhandler.NewHandler(logger)
	handler := httphandler.NewRouter(apiHandler, logger, cfg.CORSOrigins, func(r chi.Router) {
		webhandler.RegisterRoutes(r, webHandler)
		r.Handle("/metrics", recorder.Handler())
	})

	// Write timeout must outlast a full key exchange.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.KeygenTimeout + 20*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	slog.Info("keyvault started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serverErr:
		return err
	}

	// 8. Graceful shutdown with 10s timeout for in-flight exchanges to drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openStore builds the credential store selected by kind. The returned close
// function is always non-nil.
func openStore(ctx context.Context, kind model.StoreKind) (driven.CredentialStore, func(), error) {
	switch kind {
	case model.StoreSQLite:
		db, err := sqliteadapter.NewDB(ctx, "keyvault")
		if err != nil {
			return nil, nil, err
		}
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("sqlite credential store ready")
		return sqliteadapter.NewCredentialRepo(db), func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}, nil
	default:
		return memoryadapter.NewCredentialRepo(), func() {}, nil
	}
}
