package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeText writes an opaque payload as plain text.
func writeText(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// StatusResponse confirms a vault mutation.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AddDeviceRequest is the JSON body for the add device endpoint.
type AddDeviceRequest struct {
	IP       string `json:"ip"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// DeviceResponse is the JSON representation of a vault entry. It never
// carries the password.
type DeviceResponse struct {
	IP        string `json:"ip"`
	Username  string `json:"username"`
	UpdatedAt string `json:"updated_at"`
}

// toDeviceResponse converts a domain DeviceSummary to its JSON representation.
func toDeviceResponse(d model.DeviceSummary) DeviceResponse {
	return DeviceResponse{
		IP:        d.Address,
		Username:  d.Username,
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
