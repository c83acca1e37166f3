package api

import "net/http"

// Toggle switches command recognition on and off.
type Toggle interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// StatusHandler reads and sets the recognition toggle.
type StatusHandler struct {
	toggle Toggle
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(t Toggle) *StatusHandler {
	return &StatusHandler{toggle: t}
}

type statusBody struct {
	Enabled *bool `json:"enabled"`
}

// Get handles GET /api/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	enabled := h.toggle.IsEnabled()
	writeJSON(w, http.StatusOK, statusBody{Enabled: &enabled})
}

// Put handles PUT /api/status with {"enabled": bool}.
func (h *StatusHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req statusBody
	if err := decodeJSON(w, r, &req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.toggle.SetEnabled(*req.Enabled)
	h.Get(w, r)
}
