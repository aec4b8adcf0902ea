// Package client is a Go client for the KeyVault HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds one API call. It outlasts the server's own keygen
// deadline so a slow device surfaces as a 502 rather than a client timeout.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// ErrResponseTooLarge is returned instead of a truncated body when a response
// exceeds the read limit.
var ErrResponseTooLarge = errors.New("response exceeds 1 MiB limit")

// APIError is a non-2xx answer from the KeyVault server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("keyvault: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("keyvault: HTTP %d: %s", e.StatusCode, e.Detail)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Device is one vault entry as listed by the server.
type Device struct {
	IP        string `json:"ip"`
	Username  string `json:"username"`
	UpdatedAt string `json:"updated_at"`
}

// Health is the server's liveness report.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type addDeviceRequest struct {
	IP       string `json:"ip"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Client talks to one KeyVault server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the server at baseURL. A nil httpClient gets a
// client with DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// RequestKey asks the server to run a key exchange with the device at address
// and returns the device's body verbatim.
func (c *Client) RequestKey(ctx context.Context, address string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/deviceIp="+url.PathEscape(address), nil)
}

// AddDevice stores credentials for address and returns the server's message.
func (c *Client) AddDevice(ctx context.Context, address, username, password string) (string, error) {
	body, err := json.Marshal(addDeviceRequest{IP: address, Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	return c.mutate(ctx, http.MethodPost, "/add-device", body)
}

// DeleteDevice removes address from the vault and returns the server's message.
func (c *Client) DeleteDevice(ctx context.Context, address string) (string, error) {
	return c.mutate(ctx, http.MethodDelete, "/delete-device/"+url.PathEscape(address), nil)
}

// ListDevices returns the vault contents ordered by address.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	data, err := c.do(ctx, http.MethodGet, "/devices", nil)
	if err != nil {
		return nil, err
	}

	var devices []Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	return devices, nil
}

// Health fetches the server's liveness report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	data, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return Health{}, err
	}

	var h Health
	if err := json.Unmarshal(data, &h); err != nil {
		return Health{}, fmt.Errorf("decode health: %w", err)
	}
	return h, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, body []byte) (string, error) {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return "", err
	}

	var resp statusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrResponseTooLarge)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

// newAPIError extracts the {"detail": ...} message when the body carries one.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Detail string `json:"detail"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}
