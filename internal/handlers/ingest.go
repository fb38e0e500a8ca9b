package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"asset-tracker-api/pkg/reconciler"
)

// IngestHandler accepts raw webhook payloads and feeds them through the
// reconciler. This is the endpoint a poller (or a manually pasted sample)
// calls.
type IngestHandler struct {
	Reconciler *reconciler.Reconciler
	MaxBytes   int64
	Observe    func(reconciler.Summary) // optional metrics hook
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(rec *reconciler.Reconciler) *IngestHandler {
	return &IngestHandler{
		Reconciler: rec,
		MaxBytes:   1 << 20, // 1 MB
	}
}

// Ingest handles POST /ingest. The reconciler never fails, so the
// response is always 200 with the per-phase summary; callers that don't
// care can ignore the body.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	sum := h.Reconciler.Reconcile(r.Context(), payload)
	if h.Observe != nil {
		h.Observe(sum)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": sum,
		"meta": map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
