package models

import "time"

// Position is a single coordinate report for a tracker. The current
// position per tracker is last-write-wins by processing order, not by
// comparing timestamps.
type Position struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReceivedAt time.Time `json:"received_at"`
}
