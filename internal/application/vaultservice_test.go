package application_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keyvault/internal/adapter/driven/memory"
	"github.com/ericfisherdev/keyvault/internal/application"
	"github.com/ericfisherdev/keyvault/internal/domain/model"
	"github.com/ericfisherdev/keyvault/internal/domain/port/driven"
)

// --- Mock implementations ---

type exchangeCall struct {
	Address string
	Cred    model.Credential
	CtxErr  error
}

type mockExchanger struct {
	calls []exchangeCall
	resp  model.KeyResponse
	err   error
}

func (m *mockExchanger) RequestKey(ctx context.Context, address string, cred model.Credential) (model.KeyResponse, error) {
	m.calls = append(m.calls, exchangeCall{Address: address, Cred: cred, CtxErr: ctx.Err()})
	return m.resp, m.err
}

// failingStore returns err from every operation.
type failingStore struct {
	err error
}

func (f *failingStore) Lookup(_ context.Context, _ string) (model.Credential, error) {
	return model.Credential{}, f.err
}
func (f *failingStore) Add(_ context.Context, _ model.Credential) error { return f.err }
func (f *failingStore) Delete(_ context.Context, _ string) error { return f.err }
func (f *failingStore) List(_ context.Context) ([]model.Credential, error) { return nil, f.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, exchanger *mockExchanger) (*application.VaultService, *memory.CredentialRepo) {
	t.Helper()
	store := memory.NewCredentialRepo()
	return application.NewVaultService(store, exchanger, discardLogger()), store
}

// --- Tests ---

func TestRequestKey_InvalidAddressSkipsStoreAndNetwork(t *testing.T) {
	inputs := []string{"", " ", "abc", "999.1.1.1", "192.0.2.1/32", "192.0.2.1:443", "[2001:db8::1]", "host.example"}

	for _, input := range inputs {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			exchanger := &mockExchanger{}
			svc, _ := newService(t, exchanger)

			_, err := svc.RequestKey(context.Background(), input)
			assert.ErrorIs(t, err, model.ErrInvalidAddress)
			assert.Equal(t, model.OutcomeInvalidAddress, application.Outcome(err))
			assert.Empty(t, exchanger.calls)
		})
	}
}

func TestRequestKey_UnknownAddressSkipsNetwork(t *testing.T) {
	exchanger := &mockExchanger{}
	svc, _ := newService(t, exchanger)

	_, err := svc.RequestKey(context.Background(), "192.0.2.10")
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
	assert.Equal(t, model.OutcomeCredentialsNotFound, application.Outcome(err))
	assert.Empty(t, exchanger.calls)
}

func TestRequestKey_ReturnsDeviceBodyUnmodified(t *testing.T) {
	exchanger := &mockExchanger{resp: model.KeyResponse("<key>ABC123</key>")}
	svc, store := newService(t, exchanger)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, model.Credential{Address: "192.0.2.10", Username: "admin", Password: "pw"}))

	resp, err := svc.RequestKey(ctx, "192.0.2.10")
	require.NoError(t, err)
	assert.Equal(t, "<key>ABC123</key>", resp.String())

	require.Len(t, exchanger.calls, 1)
	assert.Equal(t, "192.0.2.10", exchanger.calls[0].Address)
	assert.Equal(t, "admin", exchanger.calls[0].Cred.Username)
	assert.Equal(t, "pw", exchanger.calls[0].Cred.Password)
}

func TestRequestKey_DeviceUnreachablePropagates(t *testing.T) {
	exchanger := &mockExchanger{err: fmt.Errorf("%w: 401 Unauthorized", driven.ErrDeviceUnreachable)}
	svc, store := newService(t, exchanger)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, model.Credential{Address: "2001:db8::1", Username: "admin", Password: "pw"}))

	_, err := svc.RequestKey(ctx, "2001:db8::1")
	assert.ErrorIs(t, err, driven.ErrDeviceUnreachable)
	assert.Contains(t, err.Error(), "401 Unauthorized")
	assert.Equal(t, model.OutcomeDeviceUnreachable, application.Outcome(err))
	assert.Len(t, exchanger.calls, 1, "no retry after a failed exchange")
}

func TestRequestKey_ExchangeIgnoresCallerCancellation(t *testing.T) {
	exchanger := &mockExchanger{resp: model.KeyResponse("ok")}
	svc, store := newService(t, exchanger)

	require.NoError(t, store.Add(context.Background(), model.Credential{Address: "192.0.2.10", Username: "u", Password: "p"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RequestKey(ctx, "192.0.2.10")
	require.NoError(t, err)
	require.Len(t, exchanger.calls, 1)
	assert.NoError(t, exchanger.calls[0].CtxErr)
}

func TestRequestKey_StoreFailureIsNotUnreachable(t *testing.T) {
	exchanger := &mockExchanger{}
	svc := application.NewVaultService(&failingStore{err: errors.New("disk on fire")}, exchanger, discardLogger())

	_, err := svc.RequestKey(context.Background(), "192.0.2.10")
	require.Error(t, err)
	assert.Equal(t, model.OutcomeFailed, application.Outcome(err))
	assert.Empty(t, exchanger.calls)
}

func TestAddDevice(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		username string
		password string
		wantErr  error
	}{
		{name: "ipv4", address: "192.0.2.10", username: "admin", password: "pw"},
		{name: "ipv6", address: "2001:db8::10", username: "admin", password: "pw"},
		{name: "invalid address", address: "10.0.0", username: "admin", password: "pw", wantErr: model.ErrInvalidAddress},
		{name: "hostname", address: "fw.example.com", username: "admin", password: "pw", wantErr: model.ErrInvalidAddress},
		{name: "empty username", address: "192.0.2.10", username: "  ", password: "pw", wantErr: model.ErrInvalidCredential},
		{name: "empty password", address: "192.0.2.10", username: "admin", password: "", wantErr: model.ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t, &mockExchanger{})
			ctx := context.Background()

			err := svc.AddDevice(ctx, tt.address, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				all, listErr := store.List(ctx)
				require.NoError(t, listErr)
				assert.Empty(t, all, "rejected add must not mutate the store")
				return
			}

			require.NoError(t, err)
			cred, err := store.Lookup(ctx, tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.username, cred.Username)
			assert.Equal(t, tt.password, cred.Password)
		})
	}
}

func TestAddDevice_Overwrites(t *testing.T) {
	svc, store := newService(t, &mockExchanger{})
	ctx := context.Background()

	require.NoError(t, svc.AddDevice(ctx, "192.0.2.10", "u1", "p1"))
	require.NoError(t, svc.AddDevice(ctx, "192.0.2.10", "u2", "p2"))

	cred, err := store.Lookup(ctx, "192.0.2.10")
	require.NoError(t, err)
	assert.Equal(t, "u2", cred.Username)
	assert.Equal(t, "p2", cred.Password)
}

func TestAddDevice_KeepsUsernameAsSubmitted(t *testing.T) {
	exchanger := &mockExchanger{resp: model.KeyResponse("<key>K</key>")}
	svc, store := newService(t, exchanger)
	ctx := context.Background()

	require.NoError(t, svc.AddDevice(ctx, "192.0.2.10", " admin ", "p"))

	cred, err := store.Lookup(ctx, "192.0.2.10")
	require.NoError(t, err)
	assert.Equal(t, " admin ", cred.Username)
	assert.Equal(t, "p", cred.Password)

	_, err = svc.RequestKey(ctx, "192.0.2.10")
	require.NoError(t, err)
	require.Len(t, exchanger.calls, 1)
	assert.Equal(t, " admin ", exchanger.calls[0].Cred.Username)
}

func TestDeleteDevice(t *testing.T) {
	svc, store := newService(t, &mockExchanger{})
	ctx := context.Background()

	require.NoError(t, svc.AddDevice(ctx, "192.0.2.10", "u", "p"))
	require.NoError(t, svc.DeleteDevice(ctx, "192.0.2.10"))

	_, err := store.Lookup(ctx, "192.0.2.10")
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)

	err = svc.DeleteDevice(ctx, "192.0.2.10")
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
}

func TestListDevices_OmitsPasswords(t *testing.T) {
	svc, _ := newService(t, &mockExchanger{})
	ctx := context.Background()

	require.NoError(t, svc.AddDevice(ctx, "198.51.100.7", "ops", "p1"))
	require.NoError(t, svc.AddDevice(ctx, "192.0.2.10", "admin", "p2"))

	devices, err := svc.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "192.0.2.10", devices[0].Address)
	assert.Equal(t, "admin", devices[0].Username)
	assert.Equal(t, "198.51.100.7", devices[1].Address)
}

func TestSeed(t *testing.T) {
	svc, store := newService(t, &mockExchanger{})
	ctx := context.Background()

	err := svc.Seed(ctx, []model.Credential{
		{Address: "192.0.2.10", Username: "admin", Password: "pw"},
		{Address: "2001:db8::1", Username: "ops", Password: "pw2"},
	})
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeed_RejectsInvalidEntry(t *testing.T) {
	svc, _ := newService(t, &mockExchanger{})

	err := svc.Seed(context.Background(), []model.Credential{
		{Address: "not-an-ip", Username: "admin", Password: "pw"},
	})
	assert.ErrorIs(t, err, model.ErrInvalidAddress)
}

type recordedRequest struct {
	Outcome model.KeyExchangeOutcome
	Elapsed time.Duration
}

type fakeRecorder struct {
	requests []recordedRequest
	changes  []string
}

func (f *fakeRecorder) ObserveKeyRequest(outcome model.KeyExchangeOutcome, elapsed time.Duration) {
	f.requests = append(f.requests, recordedRequest{Outcome: outcome, Elapsed: elapsed})
}

func (f *fakeRecorder) ObserveVaultChange(op string) {
	f.changes = append(f.changes, op)
}

func TestRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	exchanger := &mockExchanger{resp: model.KeyResponse("<key>K</key>")}
	svc := application.NewVaultService(memory.NewCredentialRepo(), exchanger, discardLogger(), application.WithRecorder(rec))
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, []model.Credential{{Address: "192.0.2.1", Username: "a", Password: "p"}}))
	require.NoError(t, svc.AddDevice(ctx, "192.0.2.2", "b", "p"))
	_, err := svc.RequestKey(ctx, "192.0.2.2")
	require.NoError(t, err)
	_, err = svc.RequestKey(ctx, "bogus")
	require.Error(t, err)
	require.NoError(t, svc.DeleteDevice(ctx, "192.0.2.2"))
	_, err = svc.RequestKey(ctx, "192.0.2.2")
	require.Error(t, err)

	assert.Equal(t, []string{application.OpSeed, application.OpAdd, application.OpDelete}, rec.changes)
	require.Len(t, rec.requests, 3)
	assert.Equal(t, model.OutcomeSucceeded, rec.requests[0].Outcome)
	assert.Equal(t, model.OutcomeInvalidAddress, rec.requests[1].Outcome)
	assert.Equal(t, model.OutcomeCredentialsNotFound, rec.requests[2].Outcome)
}
