package device

import "net/http"

// TransportOf exposes the client's transport so tests can redirect dials to
// an httptest server while keeping the production TLS settings.
func TransportOf(c *Client) *http.Transport {
	return c.http.Transport.(*http.Transport)
}
