// Package cli implements the keyvaultctl command tree.
package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ericfisherdev/keyvault/internal/client"
)

// CLI is the root command structure.
type CLI struct {
	Globals

	Key    KeyCmd    `cmd:"" help:"Request an API key from a device"`
	Add    AddCmd    `cmd:"" help:"Store credentials for a device"`
	Delete DeleteCmd `cmd:"" help:"Remove a device from the vault"`
	List   ListCmd   `cmd:"" help:"List devices in the vault"`
	Health HealthCmd `cmd:"" help:"Check that the server is up"`

	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals holds flags available to all commands.
type Globals struct {
	Server  string        `help:"KeyVault server URL" default:"http://127.0.0.1:8090" env:"KEYVAULT_URL"`
	Timeout time.Duration `help:"Per-request timeout" default:"30s" env:"KEYVAULT_CLIENT_TIMEOUT"`
	Output  string        `help:"Output format" default:"table" enum:"table,json" short:"o" env:"KEYVAULT_OUTPUT"`
}

// App carries the dependencies commands run with.
type App struct {
	Client *client.Client
	Out    io.Writer
	Err    io.Writer
	// ReadPassword prompts for a secret without echo.
	ReadPassword func(prompt string) (string, error)
}

// Options returns the kong options shared by the binary and tests.
func Options(version string) []kong.Option {
	return []kong.Option{
		kong.Name("keyvaultctl"),
		kong.Description("Command-line client for the KeyVault credential broker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	}
}

// Execute parses args and runs the selected command. app.Client is built from
// the parsed globals when nil.
func Execute(ctx context.Context, args []string, app *App, options ...kong.Option) error {
	var root CLI
	parser, err := kong.New(&root, options...)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return &Error{ExitCode: ExitUsage, Message: err.Error()}
	}

	if app.Client == nil {
		app.Client = client.New(root.Server, &http.Client{Timeout: root.Timeout})
	}
	if app.Out == nil {
		app.Out = os.Stdout
	}
	if app.Err == nil {
		app.Err = os.Stderr
	}
	if app.ReadPassword == nil {
		app.ReadPassword = readTerminalPassword
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(&root.Globals)
	return kctx.Run(app)
}

// apiError converts a client failure into an Error with a matching exit code.
func apiError(action string, err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return &Error{ExitCode: ExitNetwork, Message: action + ": " + err.Error()}
	}

	code := ExitGeneral
	switch {
	case apiErr.StatusCode == http.StatusBadRequest:
		code = ExitUsage
	case apiErr.StatusCode == http.StatusNotFound:
		code = ExitNotFound
	case apiErr.StatusCode == http.StatusBadGateway:
		code = ExitDevice
	}

	msg := apiErr.Detail
	if msg == "" {
		msg = apiErr.Error()
	}
	return &Error{ExitCode: code, Message: action + ": " + msg}
}
