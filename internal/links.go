package internal

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"asset-tracker-api/internal/models"
	"asset-tracker-api/internal/store"
	"asset-tracker-api/pkg/reconciler"
)

// listLinks handles link listing with pagination
func (s *Server) listLinks(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	links, err := store.LoadLinks(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	filtered := links[:0:0]
	for _, l := range links {
		if matchQ(params.q, l.AssetID, l.TrackerID) {
			filtered = append(filtered, l)
		}
	}

	start, end := pageBounds(len(filtered), params)
	sendListResponse(w, filtered[start:end], len(filtered), params)
}

// upsertLink binds a tracker to an asset. The same exclusivity rule as
// the ingestion path applies: the tracker's previous binding, if any, is
// dropped.
func (s *Server) upsertLink(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	req.AssetID = strings.TrimSpace(req.AssetID)
	req.TrackerID = strings.TrimSpace(req.TrackerID)
	if req.AssetID == "" || req.TrackerID == "" {
		http.Error(w, "asset_id and tracker_id are required", 400)
		return
	}

	status := models.LinkActive
	if req.Status != nil {
		parsed, ok := models.ParseLinkStatus(*req.Status)
		if !ok {
			http.Error(w, "invalid status", 400)
			return
		}
		status = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	links, err := store.LoadLinks(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	links, outcome := reconciler.MergeLinks(links, req.AssetID, req.TrackerID, status, time.Now().UTC())

	if err := store.SaveLinks(r.Context(), s.Store, links); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	code := http.StatusOK
	if outcome == reconciler.OutcomeCreated {
		code = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	for _, l := range links {
		if l.TrackerID == req.TrackerID {
			if err := json.NewEncoder(w).Encode(l); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
	}
}

// deleteLink removes the link identified by asset_id and tracker_id
// query parameters
func (s *Server) deleteLink(w http.ResponseWriter, r *http.Request) {
	assetID := strings.TrimSpace(r.URL.Query().Get("asset_id"))
	trackerID := strings.TrimSpace(r.URL.Query().Get("tracker_id"))
	if assetID == "" || trackerID == "" {
		http.Error(w, "asset_id and tracker_id are required", 400)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	links, err := store.LoadLinks(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	kept := links[:0:0]
	for _, l := range links {
		if !(l.AssetID == assetID && l.TrackerID == trackerID) {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(links) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err := store.SaveLinks(r.Context(), s.Store, kept); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
