// Package reconciler normalizes arbitrary webhook payloads into the
// canonical asset, tracker, link, and position collections. It is
// best-effort by contract: Reconcile never returns an error and never
// panics, so a polling loop feeding it cannot be broken by bad input;
// observability comes from the per-phase Summary it returns instead.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"asset-tracker-api/internal/models"
	"asset-tracker-api/internal/store"
)

// Outcome classifies what happened to one upsert phase.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// PhaseResult is the outcome of a single phase, with a reason when the
// phase was skipped or failed.
type PhaseResult struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Summary reports all four phases of one reconciliation.
type Summary struct {
	Asset    PhaseResult `json:"asset"`
	Tracker  PhaseResult `json:"tracker"`
	Link     PhaseResult `json:"link"`
	Position PhaseResult `json:"position"`
}

// DefaultHistoryLimit caps each tracker's position history (oldest entries
// evicted first).
const DefaultHistoryLimit = 500

// Options configures a Reconciler. Zero values select the defaults.
type Options struct {
	HistoryLimit int
	Aliases      *AliasConfig
	Now          func() time.Time // test hook
}

// Reconciler upserts payloads into an injected Store. A mutex serializes
// reconciliations: the store is read-modify-write per collection, so two
// overlapping payloads for the same identifier would otherwise lose
// updates.
type Reconciler struct {
	mu           sync.Mutex
	store        store.Store
	aliases      *AliasConfig
	historyLimit int
	now          func() time.Time
}

// New creates a Reconciler over s.
func New(s store.Store, opts Options) *Reconciler {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Aliases == nil {
		opts.Aliases = DefaultAliases()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		store:        s,
		aliases:      opts.Aliases,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
	}
}

// resolved holds the payload fields after the resolve phase.
type resolved struct {
	assetID      string
	assetName    string
	assetStatus  models.EntityStatus
	trackerID    string
	trackerName  string
	trackerModel string
	trackerStat  models.EntityStatus
	battery      int
	batteryOK    bool
	linkStatus   models.LinkStatus
	lat, lng     float64
	coordsOK     bool
	receivedAt   time.Time
}

// Reconcile parses payload as JSON and upserts it. Invalid JSON skips
// every phase; no error ever surfaces.
func (r *Reconciler) Reconcile(ctx context.Context, payload []byte) Summary {
	var v interface{}
	if err := json.Unmarshal(payload, &v); err != nil {
		return skippedAll("payload is not valid JSON")
	}
	return r.ReconcileValue(ctx, v)
}

// ReconcileValue upserts an already-decoded payload value. The four phases
// run in a fixed order (asset, tracker, link, position); a store failure
// aborts the remaining phases, which stay marked "not attempted".
func (r *Reconciler) ReconcileValue(ctx context.Context, v interface{}) (sum Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum = skippedAll("not attempted")
	defer func() {
		// Never let a malformed payload escape as a panic.
		_ = recover()
	}()

	top := newKeyIndex(v)
	if top == nil {
		return skippedAll("payload is not an object")
	}

	// Unwrap a single well-known wrapper key, if present.
	if inner, ok := top.resolve(r.aliases.Wrappers...); ok {
		if idx := newKeyIndex(inner); idx != nil {
			top = idx
		}
	}

	f := r.resolve(top)

	var aborted bool
	sum.Asset, aborted = r.upsertAsset(ctx, f)
	if aborted {
		return sum
	}
	sum.Tracker, aborted = r.upsertTracker(ctx, f)
	if aborted {
		return sum
	}
	sum.Link, aborted = r.upsertLink(ctx, f)
	if aborted {
		return sum
	}
	sum.Position, _ = r.upsertPosition(ctx, f)
	return sum
}

func (r *Reconciler) resolve(top keyIndex) resolved {
	var f resolved
	now := r.now().UTC()

	assetSec := top.section(r.aliases.Asset.Section)
	if id, ok := entityString(assetSec, top, r.aliases.Asset.ID, "id"); ok {
		f.assetID = id
	}
	if name, ok := entityString(assetSec, top, r.aliases.Asset.Name, "name"); ok {
		f.assetName = name
	}
	if s, ok := entityString(assetSec, top, r.aliases.Asset.Status, "status"); ok {
		if status, ok := models.ParseEntityStatus(s); ok {
			f.assetStatus = status
		}
	}
	if f.assetID == "" && f.assetName != "" {
		f.assetID = SlugID(f.assetName)
	}

	trackerSec := top.section(r.aliases.Tracker.Section)
	if id, ok := entityString(trackerSec, top, r.aliases.Tracker.ID, "id"); ok {
		f.trackerID = id
	}
	if name, ok := entityString(trackerSec, top, r.aliases.Tracker.Name, "name"); ok {
		f.trackerName = name
	}
	if m, ok := entityString(trackerSec, top, r.aliases.Tracker.Model, "model"); ok {
		f.trackerModel = m
	}
	if s, ok := entityString(trackerSec, top, r.aliases.Tracker.Status, "status"); ok {
		if status, ok := models.ParseEntityStatus(s); ok {
			f.trackerStat = status
		}
	}
	if v, ok := entityValue(trackerSec, top, r.aliases.Tracker.Battery, "battery"); ok {
		f.battery, f.batteryOK = NormalizeBattery(v)
	}
	if f.trackerID == "" && f.trackerName != "" {
		f.trackerID = SlugID(f.trackerName)
	}

	trackingSec := top.section(r.aliases.Tracking.Section)
	lat, latOK := entityValue(trackingSec, top, r.aliases.Tracking.Latitude)
	lng, lngOK := entityValue(trackingSec, top, r.aliases.Tracking.Longitude)
	if latOK && lngOK {
		latF, ok1 := asFloat(lat)
		lngF, ok2 := asFloat(lng)
		if ok1 && ok2 {
			f.lat, f.lng, f.coordsOK = latF, lngF, true
		}
	}
	f.linkStatus = models.LinkActive
	if s, ok := entityString(trackingSec, top, r.aliases.Tracking.Status); ok {
		if status, ok := models.ParseLinkStatus(s); ok {
			f.linkStatus = status
		}
	}
	f.receivedAt = now
	if v, ok := entityValue(trackingSec, top, r.aliases.Tracking.Timestamp); ok {
		f.receivedAt = parseTimestamp(v, now)
	}

	return f
}

// upsertAsset merges the resolved asset fields into the asset collection.
// The bool result reports a store failure, which aborts the run.
func (r *Reconciler) upsertAsset(ctx context.Context, f resolved) (PhaseResult, bool) {
	if f.assetID == "" {
		return phaseSkipped("no asset identifier"), false
	}
	assets, err := store.LoadAssets(ctx, r.store)
	if err != nil {
		return phaseFailed("load assets", err), true
	}

	now := r.now().UTC()
	outcome := OutcomeCreated
	found := false
	for i := range assets {
		if assets[i].ID != f.assetID {
			continue
		}
		// Present fields override, absent fields keep prior values.
		if f.assetName != "" {
			assets[i].Name = f.assetName
		}
		if f.assetStatus != "" {
			assets[i].Status = f.assetStatus
		}
		assets[i].UpdatedAt = now
		outcome = OutcomeUpdated
		found = true
		break
	}
	if !found {
		asset := models.Asset{
			ID:        f.assetID,
			Name:      f.assetName,
			Type:      models.AssetTypeMovable,
			Status:    models.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if f.assetStatus != "" {
			asset.Status = f.assetStatus
		}
		assets = append(assets, asset)
	}

	if err := store.SaveAssets(ctx, r.store, assets); err != nil {
		return phaseFailed("save assets", err), true
	}
	return PhaseResult{Outcome: outcome}, false
}

func (r *Reconciler) upsertTracker(ctx context.Context, f resolved) (PhaseResult, bool) {
	if f.trackerID == "" {
		return phaseSkipped("no tracker identifier"), false
	}
	trackers, err := store.LoadTrackers(ctx, r.store)
	if err != nil {
		return phaseFailed("load trackers", err), true
	}

	now := r.now().UTC()
	outcome := OutcomeCreated
	found := false
	for i := range trackers {
		if trackers[i].ID != f.trackerID {
			continue
		}
		// Model stays fixed from first creation; only name, battery, and
		// status are mutable on merge.
		if f.trackerName != "" {
			trackers[i].Name = f.trackerName
		}
		if f.batteryOK {
			trackers[i].BatteryLevel = f.battery
		}
		if f.trackerStat != "" {
			trackers[i].Status = f.trackerStat
		}
		trackers[i].UpdatedAt = now
		outcome = OutcomeUpdated
		found = true
		break
	}
	if !found {
		tracker := models.Tracker{
			ID:        f.trackerID,
			Name:      f.trackerName,
			Model:     f.trackerModel,
			Status:    models.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if f.batteryOK {
			tracker.BatteryLevel = f.battery
		}
		if f.trackerStat != "" {
			tracker.Status = f.trackerStat
		}
		trackers = append(trackers, tracker)
	}

	if err := store.SaveTrackers(ctx, r.store, trackers); err != nil {
		return phaseFailed("save trackers", err), true
	}
	return PhaseResult{Outcome: outcome}, false
}

func (r *Reconciler) upsertLink(ctx context.Context, f resolved) (PhaseResult, bool) {
	if f.assetID == "" || f.trackerID == "" {
		return phaseSkipped("link requires both identifiers"), false
	}
	links, err := store.LoadLinks(ctx, r.store)
	if err != nil {
		return phaseFailed("load links", err), true
	}

	links, outcome := MergeLinks(links, f.assetID, f.trackerID, f.linkStatus, r.now().UTC())

	if err := store.SaveLinks(ctx, r.store, links); err != nil {
		return phaseFailed("save links", err), true
	}
	return PhaseResult{Outcome: outcome}, false
}

// MergeLinks applies the at-most-one-asset-per-tracker rule: any link
// holding trackerID for a different asset is dropped, then the
// (assetID, trackerID) pair is updated in place or appended. Pure; the
// input slice is not modified.
func MergeLinks(links []models.Link, assetID, trackerID string, status models.LinkStatus, now time.Time) ([]models.Link, Outcome) {
	out := make([]models.Link, 0, len(links)+1)
	outcome := OutcomeCreated
	for _, l := range links {
		if l.TrackerID == trackerID && l.AssetID != assetID {
			continue
		}
		if l.TrackerID == trackerID && l.AssetID == assetID {
			l.Status = status
			l.UpdatedAt = now
			outcome = OutcomeUpdated
		}
		out = append(out, l)
	}
	if outcome == OutcomeCreated {
		out = append(out, models.Link{
			AssetID:   assetID,
			TrackerID: trackerID,
			Status:    status,
			UpdatedAt: now,
		})
	}
	return out, outcome
}

func (r *Reconciler) upsertPosition(ctx context.Context, f resolved) (PhaseResult, bool) {
	if f.trackerID == "" {
		return phaseSkipped("no tracker identifier"), false
	}
	if !f.coordsOK {
		return phaseSkipped("coordinates missing or not numeric"), false
	}

	pos := models.Position{Lat: f.lat, Lng: f.lng, ReceivedAt: f.receivedAt}

	positions, err := store.LoadPositions(ctx, r.store)
	if err != nil {
		return phaseFailed("load positions", err), true
	}
	positions[f.trackerID] = pos
	if err := store.SavePositions(ctx, r.store, positions); err != nil {
		return phaseFailed("save positions", err), true
	}

	history, err := store.LoadHistory(ctx, r.store)
	if err != nil {
		return phaseFailed("load history", err), true
	}
	entries := append(history[f.trackerID], pos)
	if len(entries) > r.historyLimit {
		entries = entries[len(entries)-r.historyLimit:]
	}
	history[f.trackerID] = entries
	if err := store.SaveHistory(ctx, r.store, history); err != nil {
		return phaseFailed("save history", err), true
	}

	outcome := OutcomeCreated
	if len(entries) > 1 {
		outcome = OutcomeUpdated
	}
	return PhaseResult{Outcome: outcome}, false
}

func phaseSkipped(reason string) PhaseResult {
	return PhaseResult{Outcome: OutcomeSkipped, Reason: reason}
}

func phaseFailed(op string, err error) PhaseResult {
	return PhaseResult{Outcome: OutcomeFailed, Reason: fmt.Sprintf("%s: %v", op, err)}
}

func skippedAll(reason string) Summary {
	p := phaseSkipped(reason)
	return Summary{Asset: p, Tracker: p, Link: p, Position: p}
}
