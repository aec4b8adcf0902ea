package cli

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/rodaine/table"
	"golang.org/x/term"
)

// KeyCmd requests an API key through the server.
type KeyCmd struct {
	Address string `arg:"" help:"Device IP address"`
	Raw     bool   `help:"Print the device response verbatim instead of the key"`
}

func (cmd *KeyCmd) Run(ctx context.Context, app *App) error {
	body, err := app.Client.RequestKey(ctx, cmd.Address)
	if err != nil {
		return apiError("request key", err)
	}

	if cmd.Raw {
		_, err := fmt.Fprintln(app.Out, string(body))
		return err
	}

	key, ok := ExtractKey(body)
	if !ok {
		return &Error{
			ExitCode: ExitDevice,
			Message:  "device response carried no key: " + strings.TrimSpace(string(body)),
		}
	}
	_, err = fmt.Fprintln(app.Out, key)
	return err
}

// ExtractKey returns the text of the first <key> element in a device response.
func ExtractKey(body []byte) (string, bool) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "key" {
			continue
		}
		var key string
		if err := dec.DecodeElement(&key, &start); err != nil {
			return "", false
		}
		return strings.TrimSpace(key), true
	}
}

// AddCmd stores credentials for a device.
type AddCmd struct {
	Address  string `arg:"" help:"Device IP address"`
	Username string `help:"Device admin username" short:"u" required:""`
	Password string `help:"Device admin password (prompted when omitted)" short:"p" env:"KEYVAULT_DEVICE_PASSWORD"`
}

func (cmd *AddCmd) Run(ctx context.Context, app *App) error {
	password := cmd.Password
	if password == "" {
		var err error
		password, err = app.ReadPassword("Password for " + cmd.Username + "@" + cmd.Address + ": ")
		if err != nil {
			return &Error{ExitCode: ExitUsage, Message: err.Error()}
		}
	}

	msg, err := app.Client.AddDevice(ctx, cmd.Address, cmd.Username, password)
	if err != nil {
		return apiError("add device", err)
	}
	_, err = fmt.Fprintln(app.Err, msg)
	return err
}

// DeleteCmd removes a device from the vault.
type DeleteCmd struct {
	Address string `arg:"" help:"Device IP address"`
	Confirm bool   `help:"Confirm deletion" short:"y"`
}

func (cmd *DeleteCmd) Run(ctx context.Context, app *App) error {
	if !cmd.Confirm {
		return &Error{
			ExitCode: ExitUsage,
			Message:  "deletion requires --confirm",
		}
	}

	msg, err := app.Client.DeleteDevice(ctx, cmd.Address)
	if err != nil {
		return apiError("delete device", err)
	}
	_, err = fmt.Fprintln(app.Err, msg)
	return err
}

// ListCmd prints the vault contents.
type ListCmd struct{}

func (cmd *ListCmd) Run(ctx context.Context, app *App, globals *Globals) error {
	devices, err := app.Client.ListDevices(ctx)
	if err != nil {
		return apiError("list devices", err)
	}

	if globals.Output == "json" {
		return writeJSON(app.Out, devices)
	}

	if len(devices) == 0 {
		_, err := fmt.Fprintln(app.Err, "vault is empty")
		return err
	}

	tbl := table.New("IP", "USERNAME", "UPDATED").WithWriter(app.Out)
	for _, d := range devices {
		tbl.AddRow(d.IP, d.Username, d.UpdatedAt)
	}
	tbl.Print()
	return nil
}

// HealthCmd checks the server.
type HealthCmd struct{}

func (cmd *HealthCmd) Run(ctx context.Context, app *App, globals *Globals) error {
	h, err := app.Client.Health(ctx)
	if err != nil {
		return apiError("health", err)
	}

	if globals.Output == "json" {
		return writeJSON(app.Out, h)
	}
	_, err = fmt.Fprintf(app.Out, "%s: %s\n", h.Service, h.Status)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readTerminalPassword prompts on stderr and reads stdin without echo.
func readTerminalPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password required: pass --password or run from a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (cmd *VersionCmd) Run(kctx *kong.Context, app *App) error {
	_, err := fmt.Fprintln(app.Out, "keyvaultctl version "+kctx.Model.Vars()["version"])
	return err
}
