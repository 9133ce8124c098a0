package handlers

import "net/http"

// ReloadInventory handles POST /inventory/reload.
// It re-reads the declaration document and reconciles controllers and
// schedules against the new topology.
func (h *Handlers) ReloadInventory(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reloader.Reload(r.Context())
	if err != nil {
		h.httpError(w, "Reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.respondJson(w, http.StatusOK, resp)
}
