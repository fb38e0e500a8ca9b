package models

import "time"

// LinkStatus is the status of an asset-tracker binding, independent of
// either entity's own status.
type LinkStatus string

const (
	LinkActive   LinkStatus = "active"
	LinkInactive LinkStatus = "inactive"
)

// Link binds one asset to one tracker. A tracker appears in at most one
// link at a time; binding it elsewhere removes the previous link.
type Link struct {
	AssetID   string     `json:"asset_id"`
	TrackerID string     `json:"tracker_id"`
	Status    LinkStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UpsertLinkRequest represents the request body for creating or updating
// a link.
type UpsertLinkRequest struct {
	AssetID   string  `json:"asset_id"`
	TrackerID string  `json:"tracker_id"`
	Status    *string `json:"status,omitempty"`
}

// ParseLinkStatus matches s case-insensitively against the canonical link
// status values. Unknown input returns ok=false.
func ParseLinkStatus(s string) (LinkStatus, bool) {
	switch LinkStatus(normalize(s)) {
	case LinkActive:
		return LinkActive, true
	case LinkInactive:
		return LinkInactive, true
	}
	return "", false
}
