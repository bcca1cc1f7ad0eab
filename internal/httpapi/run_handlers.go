package httpapi

import (
	"net/http"

	"ses-engine/internal/poll"
)

type RunHandler struct {
	Poller *poll.Poller
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Poller.Status())
}

// Run triggers a pipeline pass. The poller coalesces overlapping requests,
// so an already-running pass just absorbs the trigger.
func (h RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	st := h.Poller.Status()
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}
	h.Poller.Trigger()
	writeJSON(w, map[string]any{"ok": true})
}
