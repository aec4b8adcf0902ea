package model

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidCredential indicates a credential with an empty username or password.
var ErrInvalidCredential = errors.New("username and password are required")

// Credential holds the administrative login for a single device. Address is
// the IP literal exactly as submitted and is the vault key.
type Credential struct {
	Address   string
	Username  string
	Password  string
	UpdatedAt time.Time
}

// Validate checks the address literal and that both secrets are non-empty.
func (c Credential) Validate() error {
	if err := ValidateAddress(c.Address); err != nil {
		return err
	}
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return ErrInvalidCredential
	}
	return nil
}

// DeviceSummary is the password-free view of a vault entry.
type DeviceSummary struct {
	Address   string
	Username  string
	UpdatedAt time.Time
}

// Summary strips the password from the credential.
func (c Credential) Summary() DeviceSummary {
	return DeviceSummary{
		Address:   c.Address,
		Username:  c.Username,
		UpdatedAt: c.UpdatedAt,
	}
}
