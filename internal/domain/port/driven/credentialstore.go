package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
)

// ErrCredentialNotFound indicates the vault holds no entry for the address.
var ErrCredentialNotFound = errors.New("IP not found in credential vault")

// CredentialStore defines the driven port for the device credential vault.
// Entries live only as long as the process; no adapter persists them.
type CredentialStore interface {
	// Lookup returns the credential stored for address.
	// Returns ErrCredentialNotFound if there is none.
	Lookup(ctx context.Context, address string) (model.Credential, error)

	// Add stores cred, replacing any entry for the same address.
	// Returns model.ErrInvalidAddress if cred.Address is not an IP literal.
	Add(ctx context.Context, cred model.Credential) error

	// Delete removes the entry for address.
	// Returns ErrCredentialNotFound if there is none; the store is unchanged.
	Delete(ctx context.Context, address string) error

	// List returns every stored credential ordered by address.
	List(ctx context.Context) ([]model.Credential, error)
}
