package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"asset-tracker-api/internal/models"
	"asset-tracker-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore wraps a Memory store and fails Get/Set for one key.
type failingStore struct {
	*store.Memory
	failKey string
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == f.failKey {
		return nil, false, errors.New("store unavailable")
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if key == f.failKey {
		return errors.New("store unavailable")
	}
	return f.Memory.Set(ctx, key, value)
}

func newTestReconciler(t *testing.T, opts Options) (*Reconciler, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return New(st, opts), st
}

func TestReconcileEndToEnd(t *testing.T) {
	rec, st := newTestReconciler(t, Options{})
	ctx := context.Background()

	payload := []byte(`{
		"Output": {
			"Asset ID": "A1",
			"Asset Name": "Truck",
			"latitude": 12.97,
			"longitude": 77.59,
			"tracker": {"id": "T1", "name": "GPS1"}
		}
	}`)

	sum := rec.Reconcile(ctx, payload)

	assert.Equal(t, OutcomeCreated, sum.Asset.Outcome)
	assert.Equal(t, OutcomeCreated, sum.Tracker.Outcome)
	assert.Equal(t, OutcomeCreated, sum.Link.Outcome)
	assert.Equal(t, OutcomeCreated, sum.Position.Outcome)

	assets, err := store.LoadAssets(ctx, st)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "A1", assets[0].ID)
	assert.Equal(t, "Truck", assets[0].Name)
	assert.Equal(t, models.StatusActive, assets[0].Status)

	trackers, err := store.LoadTrackers(ctx, st)
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, "T1", trackers[0].ID)
	assert.Equal(t, "GPS1", trackers[0].Name)

	links, err := store.LoadLinks(ctx, st)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "A1", links[0].AssetID)
	assert.Equal(t, "T1", links[0].TrackerID)
	assert.Equal(t, models.LinkActive, links[0].Status)

	positions, err := store.LoadPositions(ctx, st)
	require.NoError(t, err)
	require.Contains(t, positions, "T1")
	assert.Equal(t, 12.97, positions["T1"].Lat)
	assert.Equal(t, 77.59, positions["T1"].Lng)

	history, err := store.LoadHistory(ctx, st)
	require.NoError(t, err)
	assert.Len(t, history["T1"], 1)
}

func TestReconcileIdempotent(t *testing.T) {
	rec, st := newTestReconciler(t, Options{})
	ctx := context.Background()

	payload := []byte(`{"asset_id": "A1", "asset_name": "Truck", "tracker_id": "T1"}`)

	first := rec.Reconcile(ctx, payload)
	assert.Equal(t, OutcomeCreated, first.Asset.Outcome)
	assert.Equal(t, OutcomeCreated, first.Tracker.Outcome)
	assert.Equal(t, OutcomeCreated, first.Link.Outcome)

	second := rec.Reconcile(ctx, payload)
	assert.Equal(t, OutcomeUpdated, second.Asset.Outcome)
	assert.Equal(t, OutcomeUpdated, second.Tracker.Outcome)
	assert.Equal(t, OutcomeUpdated, second.Link.Outcome)

	assets, err := store.LoadAssets(ctx, st)
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	trackers, err := store.LoadTrackers(ctx, st)
	require.NoError(t, err)
	assert.Len(t, trackers, 1)

	links, err := store.LoadLinks(ctx, st)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestReconcileMergePreservesPriorFields(t *testing.T) {
	rec, st := newTestReconciler(t, Options{})
	ctx := context.Background()

	rec.Reconcile(ctx, []byte(`{"id": "a1", "name": "Crane", "status": "Active"}`))

	sum := rec.Reconcile(ctx, []byte(`{"id": "a1", "status": "Maintenance"}`))
	assert.Equal(t, OutcomeUpdated, sum.Asset.Outcome)

	assets, err := store.LoadAssets(ctx, st)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Crane", assets[0].Name, "absent name must keep its prior value")
	assert.Equal(t, models.StatusMaintenance, assets[0].Status)
}

func TestReconcileTrackerExclusivity(t *testing.T) {
	rec, st := newTestReconciler(t, Options{})
	ctx := context.Background()

	rec.Reconcile(ctx, []byte(`{"asset_id": "A1", "tracker_id": "T1"}`))
	rec.Reconcile(ctx, []byte(`{"asset_id": "A2", "tracker_id": "T1"}`))

	links, err := store.LoadLinks(ctx, st)
	require.NoError(t, err)
	require.Len(t, links, 1, "a tracker can be linked to at most one asset")
	assert.Equal(t, "A2", links[0].AssetID)
	assert.Equal(t, "T1", links[0].TrackerID)
}

func TestReconcileBatteryNormalization(t *testing.T) {
	tests := []struct {
		name    string
		battery string
		want    int
	}{
		{"fraction scales to percent", "0.85", 85},
		{"percent passes through", "85", 85},
		{"above range clamps", "150", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, st := newTestReconciler(t, Options{})
			ctx := context.Background()

			payload := fmt.Sprintf(`{"tracker_id": "T1", "battery": %s}`, tt.battery)
			rec.Reconcile(ctx, []byte(payload))

			trackers, err := store.LoadTrackers(ctx, st)
			require.NoError(t, err)
			require.Len(t, trackers, 1)
			assert.Equal(t, tt.want, trackers[0].BatteryLevel)
		})
	}
}

func TestReconcileBatteryNonNumericLeavesPrior(t *testing.T) {
	rec, st := newTestReconciler(t, Options{})
	ctx := context.Background()

	rec.Reconcile(ctx, []byte(`{"tracker_id": "T1", "battery": 85}`))
	rec.Reconcile(ctx, []byte(`{"tracker_id": "T1", "battery": "not-a-number"}`))

	trackers, err := store.LoadTrackers(ctx, st)
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, 85, trackers[0].BatteryLevel)
}

func TestReconcileSlugIdentifier(t *testing.T) {
	rec, st := newTestReconciler(t, Options{})
	ctx := context.Background()

	sum := rec.Reconcile(ctx, []byte(`{"asset_name": "Delivery Truck #1"}`))
	assert.Equal(t, OutcomeCreated, sum.Asset.Outcome)

	assets, err := store.LoadAssets(ctx, st)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "delivery-truck-1", assets[0].ID)
	assert.Equal(t, "Delivery Truck #1", assets[0].Name)
}

func TestReconcileHistoryCap(t *testing.T) {
	rec, st := newTestReconciler(t, Options{HistoryLimit: 5})
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		payload := fmt.Sprintf(`{"tracker_id": "T1", "lat": %d, "lng": 1}`, i)
		rec.Reconcile(ctx, []byte(payload))
	}

	history, err := store.LoadHistory(ctx, st)
	require.NoError(t, err)
	entries := history["T1"]
	require.Len(t, entries, 5)
	// Oldest entries are evicted first
	assert.Equal(t, float64(2), entries[0].Lat)
	assert.Equal(t, float64(6), entries[4].Lat)
}

func TestReconcileLinkStatus(t *testing.T) {
	rec, st := newTestReconciler(t, Options{})
	ctx := context.Background()

	rec.Reconcile(ctx, []byte(`{"asset_id": "A1", "tracker_id": "T1", "tracking_status": "Inactive"}`))

	links, err := store.LoadLinks(ctx, st)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, models.LinkInactive, links[0].Status)
}

func TestReconcileInvalidPayloads(t *testing.T) {
	rec, _ := newTestReconciler(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"json array", `[1, 2, 3]`},
		{"json scalar", `"hello"`},
		{"empty object", `{}`},
		{"irrelevant keys", `{"foo": "bar"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := rec.Reconcile(ctx, []byte(tt.payload))
			assert.Equal(t, OutcomeSkipped, sum.Asset.Outcome)
			assert.Equal(t, OutcomeSkipped, sum.Tracker.Outcome)
			assert.Equal(t, OutcomeSkipped, sum.Link.Outcome)
			assert.Equal(t, OutcomeSkipped, sum.Position.Outcome)
		})
	}
}

func TestReconcileStoreFailureAborts(t *testing.T) {
	fs := &failingStore{Memory: store.NewMemory(), failKey: store.KeyAssets}
	rec := New(fs, Options{})
	ctx := context.Background()

	sum := rec.Reconcile(ctx, []byte(`{"asset_id": "A1", "tracker_id": "T1"}`))

	assert.Equal(t, OutcomeFailed, sum.Asset.Outcome)
	assert.Equal(t, OutcomeSkipped, sum.Tracker.Outcome)
	assert.Equal(t, "not attempted", sum.Tracker.Reason)
	assert.Equal(t, "not attempted", sum.Link.Reason)
	assert.Equal(t, "not attempted", sum.Position.Reason)

	// Nothing after the failed phase was written.
	trackers, err := store.LoadTrackers(ctx, fs)
	require.NoError(t, err)
	assert.Empty(t, trackers)
}

func TestReconcileWrapperKeys(t *testing.T) {
	for _, wrapper := range []string{"output", "data", "payload", "result", "body"} {
		t.Run(wrapper, func(t *testing.T) {
			rec, st := newTestReconciler(t, Options{})
			ctx := context.Background()

			payload := fmt.Sprintf(`{"%s": {"asset_id": "A1"}}`, wrapper)
			sum := rec.Reconcile(ctx, []byte(payload))
			assert.Equal(t, OutcomeCreated, sum.Asset.Outcome)

			assets, err := store.LoadAssets(ctx, st)
			require.NoError(t, err)
			assert.Len(t, assets, 1)
		})
	}
}

func TestReconcileTimestamp(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec, st := newTestReconciler(t, Options{Now: func() time.Time { return fixed }})
	ctx := context.Background()

	rec.Reconcile(ctx, []byte(`{"tracker_id": "T1", "lat": 1, "lng": 2, "timestamp": "2025-05-30T10:00:00Z"}`))

	positions, err := store.LoadPositions(ctx, st)
	require.NoError(t, err)
	want := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, positions["T1"].ReceivedAt)

	// Missing timestamp falls back to now.
	rec.Reconcile(ctx, []byte(`{"tracker_id": "T2", "lat": 1, "lng": 2}`))
	positions, err = store.LoadPositions(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, fixed, positions["T2"].ReceivedAt)
}

func TestReconcileTrackerModelFixedAfterCreate(t *testing.T) {
	rec, st := newTestReconciler(t, Options{})
	ctx := context.Background()

	rec.Reconcile(ctx, []byte(`{"tracker_id": "T1", "tracker_model": "GT-06"}`))
	rec.Reconcile(ctx, []byte(`{"tracker_id": "T1", "tracker_model": "GT-99"}`))

	trackers, err := store.LoadTrackers(ctx, st)
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, "GT-06", trackers[0].Model)
}

func TestMergeLinks(t *testing.T) {
	now := time.Now().UTC()
	existing := []models.Link{
		{AssetID: "A1", TrackerID: "T1", Status: models.LinkActive},
		{AssetID: "A2", TrackerID: "T2", Status: models.LinkActive},
	}

	t.Run("reassign tracker drops old link", func(t *testing.T) {
		out, outcome := MergeLinks(existing, "A3", "T1", models.LinkActive, now)
		assert.Equal(t, OutcomeCreated, outcome)
		require.Len(t, out, 2)
		for _, l := range out {
			if l.TrackerID == "T1" {
				assert.Equal(t, "A3", l.AssetID)
			}
		}
	})

	t.Run("same pair updates in place", func(t *testing.T) {
		out, outcome := MergeLinks(existing, "A1", "T1", models.LinkInactive, now)
		assert.Equal(t, OutcomeUpdated, outcome)
		require.Len(t, out, 2)
		assert.Equal(t, models.LinkInactive, out[0].Status)
	})

	t.Run("input slice is not modified", func(t *testing.T) {
		_, _ = MergeLinks(existing, "A9", "T1", models.LinkInactive, now)
		assert.Equal(t, "A1", existing[0].AssetID)
		assert.Equal(t, models.LinkActive, existing[0].Status)
	})
}

func TestReconcileValueNonMapInput(t *testing.T) {
	rec, _ := newTestReconciler(t, Options{})

	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(`42`), &v))
	sum := rec.ReconcileValue(context.Background(), v)
	assert.Equal(t, OutcomeSkipped, sum.Asset.Outcome)
}
