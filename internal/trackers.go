package internal

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"asset-tracker-api/internal/models"
	"asset-tracker-api/internal/store"
)

// listTrackers handles tracker listing with text search, sort, and pagination
func (s *Server) listTrackers(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	trackers, err := store.LoadTrackers(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	filtered := trackers[:0:0]
	for _, t := range trackers {
		if matchQ(params.q, t.ID, t.Name, t.Model) {
			filtered = append(filtered, t)
		}
	}

	key, desc := sortKey(params.sort)
	sort.SliceStable(filtered, func(i, j int) bool {
		var less bool
		switch key {
		case "name":
			less = filtered[i].Name < filtered[j].Name
		case "battery_level":
			less = filtered[i].BatteryLevel < filtered[j].BatteryLevel
		case "updated_at":
			less = filtered[i].UpdatedAt.Before(filtered[j].UpdatedAt)
		default:
			less = filtered[i].ID < filtered[j].ID
		}
		if desc {
			return !less
		}
		return less
	})

	start, end := pageBounds(len(filtered), params)
	sendListResponse(w, filtered[start:end], len(filtered), params)
}

// getTracker handles getting a single tracker by ID
func (s *Server) getTracker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	trackers, err := store.LoadTrackers(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	for _, t := range trackers {
		if t.ID == id {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(t); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

// updateTracker handles upserting a tracker from a form-style request
func (s *Server) updateTracker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateTrackerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	var status models.EntityStatus
	if req.Status != nil {
		parsed, ok := models.ParseEntityStatus(*req.Status)
		if !ok {
			http.Error(w, "invalid status", 400)
			return
		}
		status = parsed
	}
	if req.BatteryLevel != nil && (*req.BatteryLevel < 0 || *req.BatteryLevel > 100) {
		http.Error(w, "battery_level must be between 0 and 100", 400)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trackers, err := store.LoadTrackers(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	now := time.Now().UTC()
	var out *models.Tracker
	for i := range trackers {
		if trackers[i].ID != id {
			continue
		}
		if req.Name != nil {
			trackers[i].Name = *req.Name
		}
		if req.Model != nil {
			trackers[i].Model = *req.Model
		}
		if req.BatteryLevel != nil {
			trackers[i].BatteryLevel = *req.BatteryLevel
		}
		if status != "" {
			trackers[i].Status = status
		}
		trackers[i].UpdatedAt = now
		out = &trackers[i]
		break
	}
	if out == nil {
		t := models.Tracker{
			ID:        id,
			Status:    models.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.Name != nil {
			t.Name = *req.Name
		}
		if req.Model != nil {
			t.Model = *req.Model
		}
		if req.BatteryLevel != nil {
			t.BatteryLevel = *req.BatteryLevel
		}
		if status != "" {
			t.Status = status
		}
		trackers = append(trackers, t)
		out = &trackers[len(trackers)-1]
	}

	if err := store.SaveTrackers(r.Context(), s.Store, trackers); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// deleteTracker removes a tracker together with its links, current
// position, and history
func (s *Server) deleteTracker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	trackers, err := store.LoadTrackers(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	kept := trackers[:0:0]
	for _, t := range trackers {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(trackers) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err := store.SaveTrackers(r.Context(), s.Store, kept); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	links, err := store.LoadLinks(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	keptLinks := links[:0:0]
	for _, l := range links {
		if l.TrackerID != id {
			keptLinks = append(keptLinks, l)
		}
	}
	if len(keptLinks) != len(links) {
		if err := store.SaveLinks(r.Context(), s.Store, keptLinks); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}

	positions, err := store.LoadPositions(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if _, ok := positions[id]; ok {
		delete(positions, id)
		if err := store.SavePositions(r.Context(), s.Store, positions); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}

	history, err := store.LoadHistory(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if _, ok := history[id]; ok {
		delete(history, id)
		if err := store.SaveHistory(r.Context(), s.Store, history); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
