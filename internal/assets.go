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

// listAssets handles asset listing with text search, sort, and pagination
func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	assets, err := store.LoadAssets(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	filtered := assets[:0:0]
	for _, a := range assets {
		if matchQ(params.q, a.ID, a.Name) {
			filtered = append(filtered, a)
		}
	}

	sortAssets(filtered, params.sort)

	start, end := pageBounds(len(filtered), params)
	sendListResponse(w, filtered[start:end], len(filtered), params)
}

func sortAssets(assets []models.Asset, sortParam string) {
	key, desc := sortKey(sortParam)
	sort.SliceStable(assets, func(i, j int) bool {
		var less bool
		switch key {
		case "name":
			less = assets[i].Name < assets[j].Name
		case "updated_at":
			less = assets[i].UpdatedAt.Before(assets[j].UpdatedAt)
		default:
			less = assets[i].ID < assets[j].ID
		}
		if desc {
			return !less
		}
		return less
	})
}

// getAsset handles getting a single asset by ID
func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	assets, err := store.LoadAssets(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	for _, a := range assets {
		if a.ID == id {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(a); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

// updateAsset handles upserting an asset from a form-style request.
// Nil fields keep their prior values, matching the reconciler's merge rule.
func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	// Validate enums up front so a bad request mutates nothing.
	var status models.EntityStatus
	if req.Status != nil {
		parsed, ok := models.ParseEntityStatus(*req.Status)
		if !ok {
			http.Error(w, "invalid status", 400)
			return
		}
		status = parsed
	}
	var assetType models.AssetType
	if req.Type != nil {
		parsed, ok := models.ParseAssetType(*req.Type)
		if !ok {
			http.Error(w, "invalid type", 400)
			return
		}
		assetType = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := store.LoadAssets(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	now := time.Now().UTC()
	var out *models.Asset
	for i := range assets {
		if assets[i].ID != id {
			continue
		}
		if req.Name != nil {
			assets[i].Name = *req.Name
		}
		if req.Description != nil {
			assets[i].Description = *req.Description
		}
		if req.BaseLocation != nil {
			assets[i].BaseLocation = *req.BaseLocation
		}
		if status != "" {
			assets[i].Status = status
		}
		if assetType != "" {
			assets[i].Type = assetType
		}
		assets[i].UpdatedAt = now
		out = &assets[i]
		break
	}
	if out == nil {
		a := models.Asset{
			ID:        id,
			Type:      models.AssetTypeMovable,
			Status:    models.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.Name != nil {
			a.Name = *req.Name
		}
		if req.Description != nil {
			a.Description = *req.Description
		}
		if req.BaseLocation != nil {
			a.BaseLocation = *req.BaseLocation
		}
		if status != "" {
			a.Status = status
		}
		if assetType != "" {
			a.Type = assetType
		}
		assets = append(assets, a)
		out = &assets[len(assets)-1]
	}

	if err := store.SaveAssets(r.Context(), s.Store, assets); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// deleteAsset removes an asset and any links referencing it
func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := store.LoadAssets(r.Context(), s.Store)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	kept := assets[:0:0]
	for _, a := range assets {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(assets) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err := store.SaveAssets(r.Context(), s.Store, kept); err != nil {
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
		if l.AssetID != id {
			keptLinks = append(keptLinks, l)
		}
	}
	if len(keptLinks) != len(links) {
		if err := store.SaveLinks(r.Context(), s.Store, keptLinks); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
