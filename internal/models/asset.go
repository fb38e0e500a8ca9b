package models

import "time"

// AssetType classifies whether an asset is expected to move.
type AssetType string

const (
	AssetTypeMovable    AssetType = "movable"
	AssetTypeStationery AssetType = "stationery"
)

// EntityStatus is the shared lifecycle status for assets and trackers.
type EntityStatus string

const (
	StatusActive      EntityStatus = "active"
	StatusInactive    EntityStatus = "inactive"
	StatusMissing     EntityStatus = "missing"
	StatusMaintenance EntityStatus = "maintenance"
)

// Asset represents a registered asset. The ID is either supplied by the
// source payload or slugified from the name on first sighting.
type Asset struct {
	ID           string       `json:"id"`
	Name         string       `json:"name,omitempty"`
	Description  string       `json:"description,omitempty"`
	Type         AssetType    `json:"type"`
	BaseLocation string       `json:"base_location,omitempty"`
	Status       EntityStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// UpdateAssetRequest represents the request body for updating an asset.
// Nil fields are left untouched.
type UpdateAssetRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Type         *string `json:"type,omitempty"`
	BaseLocation *string `json:"base_location,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// ParseEntityStatus matches s case-insensitively against the canonical
// status values. Unknown input returns ok=false.
func ParseEntityStatus(s string) (EntityStatus, bool) {
	switch EntityStatus(normalize(s)) {
	case StatusActive:
		return StatusActive, true
	case StatusInactive:
		return StatusInactive, true
	case StatusMissing:
		return StatusMissing, true
	case StatusMaintenance:
		return StatusMaintenance, true
	}
	return "", false
}

// ParseAssetType matches s case-insensitively against the canonical asset
// types. Unknown input returns ok=false.
func ParseAssetType(s string) (AssetType, bool) {
	switch AssetType(normalize(s)) {
	case AssetTypeMovable:
		return AssetTypeMovable, true
	case AssetTypeStationery:
		return AssetTypeStationery, true
	}
	return "", false
}
