package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ericfisherdev/keyvault/internal/application"
	"github.com/ericfisherdev/keyvault/internal/domain/model"
	"github.com/ericfisherdev/keyvault/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the KeyVault API.
type Handler struct {
	vault  *application.VaultService
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(vault *application.VaultService, logger *slog.Logger) *Handler {
	return &Handler{
		vault:  vault,
		logger: logger,
	}
}

// RegisterAPIRoutes registers the API routes on r.
func RegisterAPIRoutes(r chi.Router, h *Handler) {
	r.Get("/health", h.Health)
	r.Get("/deviceIp={address}", h.GetDeviceKey)
	r.Get("/devices", h.ListDevices)
	r.Post("/add-device", h.AddDevice)
	r.Delete("/delete-device/{address}", h.DeleteDevice)
}

// NewRouter creates a chi router with the API routes and middleware applied.
// Extra registers additional route groups, such as the web front-end.
func NewRouter(h *Handler, logger *slog.Logger, corsOrigins []string, extra ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	// Recovery inside logging so panics are logged with their 500 status.
	r.Use(recoveryMiddleware(logger))
	r.Use(corsMiddleware(corsOrigins))
	r.Use(bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	RegisterAPIRoutes(r, h)
	for _, register := range extra {
		register(r)
	}

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "KeyVault",
	})
}

// GetDeviceKey exchanges the stored credentials for a device API key and
// returns the device's body as plain text.
func (h *Handler) GetDeviceKey(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")

	resp, err := h.vault.RequestKey(r.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidAddress):
			writeError(w, http.StatusBadRequest, "Invalid IP address format")
		case errors.Is(err, driven.ErrCredentialNotFound):
			writeError(w, http.StatusNotFound, "IP not found in credential vault")
		case errors.Is(err, driven.ErrDeviceUnreachable):
			writeError(w, http.StatusBadGateway, unreachableDetail(err))
		default:
			h.logger.Error("failed to request key", "address", address, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeText(w, http.StatusOK, resp)
}

// ListDevices returns the vault contents without passwords.
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.vault.ListDevices(r.Context())
	if err != nil {
		h.logger.Error("failed to list devices", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]DeviceResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, toDeviceResponse(d))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AddDevice stores credentials for a device, replacing any existing entry.
func (h *Handler) AddDevice(w http.ResponseWriter, r *http.Request) {
	var req AddDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.vault.AddDevice(r.Context(), req.IP, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidAddress):
			writeError(w, http.StatusBadRequest, "Invalid IP address format")
		case errors.Is(err, model.ErrInvalidCredential):
			writeError(w, http.StatusBadRequest, "username and password are required")
		default:
			h.logger.Error("failed to add device", "address", req.IP, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Device " + req.IP + " added to vault",
	})
}

// DeleteDevice removes a device from the vault.
func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")

	if err := h.vault.DeleteDevice(r.Context(), address); err != nil {
		if errors.Is(err, driven.ErrCredentialNotFound) {
			writeError(w, http.StatusNotFound, "Device not found")
			return
		}
		h.logger.Error("failed to delete device", "address", address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Device " + address + " deleted from vault",
	})
}

// pathParam returns the decoded route parameter. chi matches against the raw
// path, so IPv6 zones arrive as %25.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// unreachableDetail renders the 502 message, keeping the transport error text.
func unreachableDetail(err error) string {
	cause := strings.TrimPrefix(err.Error(), driven.ErrDeviceUnreachable.Error()+": ")
	return "Failed to connect to device: " + cause
}
