package models

import (
	"strings"
	"time"
)

// Tracker represents a GPS tracker device. Model is recorded on first
// sighting and preserved on merge; payloads rarely carry it.
type Tracker struct {
	ID           string       `json:"id"`
	Name         string       `json:"name,omitempty"`
	Model        string       `json:"model,omitempty"`
	BatteryLevel int          `json:"battery_level"`
	Status       EntityStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// UpdateTrackerRequest represents the request body for updating a tracker.
// Nil fields are left untouched.
type UpdateTrackerRequest struct {
	Name         *string `json:"name,omitempty"`
	Model        *string `json:"model,omitempty"`
	BatteryLevel *int    `json:"battery_level,omitempty"`
	Status       *string `json:"status,omitempty"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
