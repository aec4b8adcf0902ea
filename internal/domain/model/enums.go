package model

// KeyExchangeOutcome is the terminal state of a single key request.
type KeyExchangeOutcome string

const (
	OutcomeSucceeded           KeyExchangeOutcome = "succeeded"
	OutcomeInvalidAddress      KeyExchangeOutcome = "invalid_address"
	OutcomeCredentialsNotFound KeyExchangeOutcome = "credentials_not_found"
	OutcomeDeviceUnreachable   KeyExchangeOutcome = "device_unreachable"

	// OutcomeFailed covers store errors that are none of the above.
	OutcomeFailed KeyExchangeOutcome = "failed"
)

// StoreKind selects the credential store adapter.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreSQLite StoreKind = "sqlite"
)
