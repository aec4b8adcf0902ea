package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
	"github.com/ericfisherdev/keyvault/internal/domain/port/driven"
)

// VaultService brokers device API keys: it resolves stored credentials for an
// address and hands them to the key exchanger. It depends only on port interfaces.
type VaultService struct {
	store     driven.CredentialStore
	exchanger driven.KeyExchanger
	recorder  Recorder
	logger    *slog.Logger
}

// Recorder receives vault activity for metrics.
type Recorder interface {
	ObserveKeyRequest(outcome model.KeyExchangeOutcome, elapsed time.Duration)
	ObserveVaultChange(op string)
}

// Vault change operations reported to the Recorder.
const (
	OpAdd    = "add"
	OpDelete = "delete"
	OpSeed   = "seed"
)

type nopRecorder struct{}

func (nopRecorder) ObserveKeyRequest(model.KeyExchangeOutcome, time.Duration) {}
func (nopRecorder) ObserveVaultChange(string) {}

// Option configures a VaultService.
type Option func(*VaultService)

// WithRecorder reports key requests and vault changes to r.
func WithRecorder(r Recorder) Option {
	return func(s *VaultService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewVaultService creates a new VaultService with the required dependencies.
func NewVaultService(store driven.CredentialStore, exchanger driven.KeyExchanger, logger *slog.Logger, opts ...Option) *VaultService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &VaultService{
		store:     store,
		exchanger: exchanger,
		recorder:  nopRecorder{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestKey validates address, looks up its credentials and performs one key
// exchange. Invalid or unknown addresses fail before any network activity.
//
// The exchange is detached from ctx cancellation: once started it runs until
// the device answers or the exchanger's timeout fires.
func (s *VaultService) RequestKey(ctx context.Context, address string) (model.KeyResponse, error) {
	start := time.Now()
	resp, err := s.requestKey(ctx, address)
	outcome := Outcome(err)
	s.recorder.ObserveKeyRequest(outcome, time.Since(start))
	if err != nil {
		s.logger.Warn("key request failed", "address", address, "outcome", outcome, "error", err)
		return nil, err
	}
	s.logger.Info("key request succeeded", "address", address, "outcome", outcome, "bytes", len(resp))
	return resp, nil
}

func (s *VaultService) requestKey(ctx context.Context, address string) (model.KeyResponse, error) {
	if err := model.ValidateAddress(address); err != nil {
		return nil, err
	}

	cred, err := s.store.Lookup(ctx, address)
	if err != nil {
		return nil, err
	}

	return s.exchanger.RequestKey(context.WithoutCancel(ctx), address, cred)
}

// AddDevice stores credentials for address exactly as given, replacing any
// existing entry.
func (s *VaultService) AddDevice(ctx context.Context, address, username, password string) error {
	cred := model.Credential{
		Address:  address,
		Username: username,
		Password: password,
	}
	if err := cred.Validate(); err != nil {
		return err
	}

	if err := s.store.Add(ctx, cred); err != nil {
		return fmt.Errorf("add device %s: %w", address, err)
	}
	s.recorder.ObserveVaultChange(OpAdd)
	s.logger.Info("device added to vault", "address", address, "username", cred.Username)
	return nil
}

// DeleteDevice removes the vault entry for address.
func (s *VaultService) DeleteDevice(ctx context.Context, address string) error {
	if err := s.store.Delete(ctx, address); err != nil {
		return err
	}
	s.recorder.ObserveVaultChange(OpDelete)
	s.logger.Info("device deleted from vault", "address", address)
	return nil
}

// ListDevices returns password-free summaries of every vault entry.
func (s *VaultService) ListDevices(ctx context.Context) ([]model.DeviceSummary, error) {
	creds, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	summaries := make([]model.DeviceSummary, 0, len(creds))
	for _, cred := range creds {
		summaries = append(summaries, cred.Summary())
	}
	return summaries, nil
}

// Seed loads the startup credential set. Any invalid entry aborts seeding.
func (s *VaultService) Seed(ctx context.Context, seeds []model.Credential) error {
	for _, cred := range seeds {
		if err := cred.Validate(); err != nil {
			return fmt.Errorf("seed %q: %w", cred.Address, err)
		}
		if err := s.store.Add(ctx, cred); err != nil {
			return fmt.Errorf("seed %q: %w", cred.Address, err)
		}
		s.recorder.ObserveVaultChange(OpSeed)
	}
	s.logger.Info("credential vault seeded", "devices", len(seeds))
	return nil
}

// Outcome maps a RequestKey error to its terminal state.
func Outcome(err error) model.KeyExchangeOutcome {
	switch {
	case err == nil:
		return model.OutcomeSucceeded
	case errors.Is(err, model.ErrInvalidAddress):
		return model.OutcomeInvalidAddress
	case errors.Is(err, driven.ErrCredentialNotFound):
		return model.OutcomeCredentialsNotFound
	case errors.Is(err, driven.ErrDeviceUnreachable):
		return model.OutcomeDeviceUnreachable
	default:
		return model.OutcomeFailed
	}
}
