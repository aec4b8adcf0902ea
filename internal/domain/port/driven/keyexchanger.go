package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
)

// ErrDeviceUnreachable covers every failed exchange: transport errors, TLS
// failures, timeouts and non-2xx responses from the device alike.
var ErrDeviceUnreachable = errors.New("failed to connect to device")

// KeyExchanger defines the driven port that trades stored credentials for a
// device-issued API key.
type KeyExchanger interface {
	// RequestKey performs a single keygen request against address. The
	// device body is returned unmodified on 2xx. Every other outcome wraps
	// ErrDeviceUnreachable and keeps the underlying error text.
	RequestKey(ctx context.Context, address string, cred model.Credential) (model.KeyResponse, error)
}
