package internal

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"asset-tracker-api/internal/models"
	"asset-tracker-api/internal/store"
)

// listPositions returns the current-position map (trackerID -> position)
func (s *Server) listPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := store.LoadPositions(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(positions); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// getTrackerPosition returns the single current position of one tracker
func (s *Server) getTrackerPosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	positions, err := store.LoadPositions(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	pos, ok := positions[id]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// getTrackerHistory returns a tracker's position history, newest first,
// with limit/offset pagination
func (s *Server) getTrackerHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	params := parseListParams(r)

	history, err := store.LoadHistory(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	entries, ok := history[id]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	// Stored oldest first; serve newest first.
	reversed := make([]models.Position, len(entries))
	for i, p := range entries {
		reversed[len(entries)-1-i] = p
	}

	start, end := pageBounds(len(reversed), params)
	sendListResponse(w, reversed[start:end], len(reversed), params)
}
