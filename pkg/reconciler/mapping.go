package reconciler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EntityAliases lists the accepted key spellings for one entity's fields.
// Aliases are tried in order; matching is case-insensitive. Section names
// identify a nested object the entity's fields may live under; inside a
// section the bare field names ("id", "name", ...) are also accepted.
type EntityAliases struct {
	Section []string `yaml:"section"`
	ID      []string `yaml:"id"`
	Name    []string `yaml:"name"`
	Status  []string `yaml:"status"`
	Battery []string `yaml:"battery,omitempty"`
	Model   []string `yaml:"model,omitempty"`
}

// TrackingAliases lists the accepted key spellings for the coordinate and
// link-status fields of a payload.
type TrackingAliases struct {
	Section   []string `yaml:"section"`
	Latitude  []string `yaml:"latitude"`
	Longitude []string `yaml:"longitude"`
	Status    []string `yaml:"status"`
	Timestamp []string `yaml:"timestamp"`
}

// AliasConfig is the full field-alias mapping the reconciler resolves
// payloads with. The built-in defaults cover the spellings seen from
// common tracker webhooks; deployments can override them from YAML.
type AliasConfig struct {
	Wrappers []string        `yaml:"wrappers"`
	Asset    EntityAliases   `yaml:"asset"`
	Tracker  EntityAliases   `yaml:"tracker"`
	Tracking TrackingAliases `yaml:"tracking"`
}

// DefaultAliases returns the built-in alias mapping.
func DefaultAliases() *AliasConfig {
	return &AliasConfig{
		Wrappers: []string{"output", "data", "payload", "result", "body"},
		// The asset is the payload's primary entity, so bare spellings
		// ("id", "name", "status") resolve to it at top level; tracker
		// fields only match bare names inside the tracker's own section.
		Asset: EntityAliases{
			Section: []string{"asset", "asset_details", "assetinfo"},
			ID:      []string{"asset id", "assetid", "asset_id", "id"},
			Name:    []string{"asset name", "assetname", "asset_name", "name"},
			Status:  []string{"asset status", "assetstatus", "asset_status", "status"},
		},
		Tracker: EntityAliases{
			Section: []string{"tracker", "device", "gps"},
			ID:      []string{"tracker id", "trackerid", "tracker_id", "device id", "deviceid", "device_id", "imei"},
			Name:    []string{"tracker name", "trackername", "tracker_name", "device name", "devicename", "device_name"},
			Status:  []string{"tracker status", "trackerstatus", "tracker_status"},
			Battery: []string{"battery", "batterylevel", "battery_level", "battery level", "batterypct", "battery_pct"},
			Model:   []string{"tracker model", "tracker_model", "device model", "device_model"},
		},
		Tracking: TrackingAliases{
			Section:   []string{"tracking", "position", "location", "coords"},
			Latitude:  []string{"latitude", "lat"},
			Longitude: []string{"longitude", "lng", "lon", "long"},
			Status:    []string{"tracking status", "trackingstatus", "tracking_status", "link status", "linkstatus", "link_status"},
			Timestamp: []string{"timestamp", "time", "received_at", "receivedat", "reported_at", "reportedat", "ts"},
		},
	}
}

// LoadAliases reads a YAML alias mapping from path, layered over the
// built-in defaults so partial files only override what they name.
func LoadAliases(path string) (*AliasConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias config: %w", err)
	}
	cfg := DefaultAliases()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse alias config: %w", err)
	}
	return cfg, nil
}
