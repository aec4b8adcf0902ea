// Package memory implements the CredentialStore port on a process-local map.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
	"github.com/ericfisherdev/keyvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is a map-backed credential vault. Individual operations are
// serialised, but a Lookup followed by a network call is not atomic with
// respect to concurrent Add or Delete on the same address.
type CredentialRepo struct {
	mu    sync.RWMutex
	creds map[string]model.Credential
	now   func() time.Time
}

// NewCredentialRepo creates an empty CredentialRepo.
func NewCredentialRepo() *CredentialRepo {
	return &CredentialRepo{
		creds: make(map[string]model.Credential),
		now:   time.Now,
	}
}

// Lookup returns the credential for address or driven.ErrCredentialNotFound.
func (r *CredentialRepo) Lookup(_ context.Context, address string) (model.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.creds[address]
	if !ok {
		return model.Credential{}, fmt.Errorf("lookup %q: %w", address, driven.ErrCredentialNotFound)
	}
	return cred, nil
}

// Add stores cred, overwriting any previous entry for the same address.
func (r *CredentialRepo) Add(_ context.Context, cred model.Credential) error {
	if err := model.ValidateAddress(cred.Address); err != nil {
		return err
	}
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[cred.Address] = cred
	return nil
}

// Delete removes the entry for address.
func (r *CredentialRepo) Delete(_ context.Context, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.creds[address]; !ok {
		return fmt.Errorf("delete %q: %w", address, driven.ErrCredentialNotFound)
	}
	delete(r.creds, address)
	return nil
}

// List returns all entries sorted by address.
func (r *CredentialRepo) List(_ context.Context) ([]model.Credential, error) {
	r.mu.RLock()
	creds := make([]model.Credential, 0, len(r.creds))
	for _, cred := range r.creds {
		creds = append(creds, cred)
	}
	r.mu.RUnlock()

	sort.Slice(creds, func(i, j int) bool { return creds[i].Address < creds[j].Address })
	return creds, nil
}
