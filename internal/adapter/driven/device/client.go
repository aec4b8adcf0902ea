// Package device implements the KeyExchanger port against the keygen endpoint
// that firewalls and management consoles expose over HTTPS.
package device

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
	"github.com/ericfisherdev/keyvault/internal/domain/port/driven"
)

// DefaultTimeout bounds a whole exchange: connect, TLS handshake, request and body.
const DefaultTimeout = 10 * time.Second

// Compile-time interface satisfaction check.
var _ driven.KeyExchanger = (*Client)(nil)

// Options configures the outbound client.
type Options struct {
	// Timeout is the fixed deadline for one exchange. Zero means DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify disables certificate verification. Devices usually
	// present self-signed certificates, so the server enables this by default.
	InsecureSkipVerify bool

	Logger *slog.Logger
}

// Client performs keygen requests. It never retries.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client with its own transport built from opts.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // explicit operator trust decision for self-signed device certs
	}

	return NewClientWithHTTPClient(&http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, opts.Logger)
}

// NewClientWithHTTPClient creates a Client around a caller-supplied http.Client.
// This constructor is intended for testing, allowing injection of an httptest TLS server.
func NewClientWithHTTPClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// Timeout returns the deadline applied to each exchange.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// RequestKey posts the stored credentials to https://{address}/api/?type=keygen
// and returns the response body untouched when the device answers 2xx.
func (c *Client) RequestKey(ctx context.Context, address string, cred model.Credential) (model.KeyResponse, error) {
	endpoint, err := KeygenURL(address)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("user", cred.Username)
	form.Set("password", cred.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", driven.ErrDeviceUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Info("connecting to device", "address", address, "username", cred.Username)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("device connection failed", "address", address, "error", err)
		return nil, fmt.Errorf("%w: %w", driven.ErrDeviceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body is not reported.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		statusErr := &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
		c.logger.Warn("device rejected keygen request", "address", address, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %w", driven.ErrDeviceUnreachable, statusErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("reading device response failed", "address", address, "error", err)
		return nil, fmt.Errorf("%w: read response: %w", driven.ErrDeviceUnreachable, err)
	}

	return model.KeyResponse(body), nil
}

// KeygenURL builds the keygen endpoint for an IP literal. IPv6 hosts are
// bracketed and zones are percent-encoded.
func KeygenURL(address string) (string, error) {
	addr, err := model.ParseAddress(address)
	if err != nil {
		return "", err
	}

	host := addr.String()
	if addr.Is6() {
		host = "[" + host + "]"
	}

	u := url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     "/api/",
		RawQuery: "type=keygen",
	}
	return u.String(), nil
}

// StatusError reports a non-2xx reply. It is always wrapped together with
// driven.ErrDeviceUnreachable; the status is kept for diagnostics only.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}
