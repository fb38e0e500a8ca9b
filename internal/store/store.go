// Package store provides the key-value persistence surface the reconciler
// and HTTP handlers read and write. Collections are stored whole, one JSON
// document per well-known key; there is no transactional atomicity across
// keys.
package store

import (
	"context"
	"encoding/json"

	"asset-tracker-api/internal/models"
)

// Well-known collection keys.
const (
	KeyAssets    = "assets"
	KeyTrackers  = "trackers"
	KeyLinks     = "links"
	KeyPositions = "positions"
	KeyHistory   = "position_history"
)

// Store is the persistence capability injected into the reconciler and
// the server. Get reports ok=false when the key has never been written.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

func load(ctx context.Context, s Store, key string, out interface{}) error {
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return json.Unmarshal(data, out)
}

func save(ctx context.Context, s Store, key string, in interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}

// LoadAssets reads the asset collection; an unwritten key yields an empty
// slice.
func LoadAssets(ctx context.Context, s Store) ([]models.Asset, error) {
	assets := []models.Asset{}
	if err := load(ctx, s, KeyAssets, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// SaveAssets writes the asset collection back whole.
func SaveAssets(ctx context.Context, s Store, assets []models.Asset) error {
	return save(ctx, s, KeyAssets, assets)
}

// LoadTrackers reads the tracker collection.
func LoadTrackers(ctx context.Context, s Store) ([]models.Tracker, error) {
	trackers := []models.Tracker{}
	if err := load(ctx, s, KeyTrackers, &trackers); err != nil {
		return nil, err
	}
	return trackers, nil
}

// SaveTrackers writes the tracker collection back whole.
func SaveTrackers(ctx context.Context, s Store, trackers []models.Tracker) error {
	return save(ctx, s, KeyTrackers, trackers)
}

// LoadLinks reads the link collection.
func LoadLinks(ctx context.Context, s Store) ([]models.Link, error) {
	links := []models.Link{}
	if err := load(ctx, s, KeyLinks, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// SaveLinks writes the link collection back whole.
func SaveLinks(ctx context.Context, s Store, links []models.Link) error {
	return save(ctx, s, KeyLinks, links)
}

// LoadPositions reads the current-position map (trackerID -> Position).
func LoadPositions(ctx context.Context, s Store) (map[string]models.Position, error) {
	positions := map[string]models.Position{}
	if err := load(ctx, s, KeyPositions, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// SavePositions writes the current-position map back whole.
func SavePositions(ctx context.Context, s Store, positions map[string]models.Position) error {
	return save(ctx, s, KeyPositions, positions)
}

// LoadHistory reads the position-history map (trackerID -> ordered entries,
// oldest first).
func LoadHistory(ctx context.Context, s Store) (map[string][]models.Position, error) {
	history := map[string][]models.Position{}
	if err := load(ctx, s, KeyHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SaveHistory writes the position-history map back whole.
func SaveHistory(ctx context.Context, s Store, history map[string][]models.Position) error {
	return save(ctx, s, KeyHistory, history)
}
