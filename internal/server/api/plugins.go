package api

import (
	"net/http"

	"github.com/ayusman/postural/internal/plugin"
)

// PluginHandler lists discovered plugins.
type PluginHandler struct {
	plugins *plugin.Manager
}

// NewPluginHandler creates a PluginHandler.
func NewPluginHandler(m *plugin.Manager) *PluginHandler {
	return &PluginHandler{plugins: m}
}

type listPluginsResponse struct {
	Plugins []plugin.Manifest `json:"plugins"`
}

// ServeHTTP handles GET /api/plugins.
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list := h.plugins.List()

	resp := listPluginsResponse{Plugins: make([]plugin.Manifest, 0, len(list))}
	for _, p := range list {
		resp.Plugins = append(resp.Plugins, p.Manifest)
	}

	writeJSON(w, http.StatusOK, resp)
}
