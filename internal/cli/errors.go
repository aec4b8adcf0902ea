package cli

// Exit codes returned by keyvaultctl.
const (
	ExitOK       = 0  // Success
	ExitGeneral  = 1  // General error
	ExitUsage    = 2  // Invalid usage or rejected input
	ExitNotFound = 4  // Device not in the vault
	ExitDevice   = 9  // Device could not be reached by the server
	ExitNetwork  = 11 // Server could not be reached
)

// Error is a command failure with the process exit code it maps to.
type Error struct {
	ExitCode int
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}
