package reconciler

import (
	"encoding/json"
	"testing"
)

func mustIndex(t *testing.T, raw string) keyIndex {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	idx := newKeyIndex(v)
	if idx == nil {
		t.Fatalf("fixture is not an object: %s", raw)
	}
	return idx
}

func TestKeyIndexCaseInsensitive(t *testing.T) {
	idx := mustIndex(t, `{"Asset ID": "A1", "LATITUDE": 12.5}`)

	if v, ok := idx.resolve("asset id"); !ok || v != "A1" {
		t.Errorf("resolve(\"asset id\") = %v, %v; want A1, true", v, ok)
	}
	if v, ok := idx.resolve("latitude"); !ok || v != 12.5 {
		t.Errorf("resolve(\"latitude\") = %v, %v; want 12.5, true", v, ok)
	}
	if _, ok := idx.resolve("missing"); ok {
		t.Error("resolve(\"missing\") should not match")
	}
}

func TestKeyIndexFirstKeyWins(t *testing.T) {
	// Two spellings that normalize to the same key; whichever the decoder
	// yielded first stays, but resolution must still find one of them.
	idx := mustIndex(t, `{"id": "a", "ID": "b"}`)

	v, ok := idx.resolve("id")
	if !ok {
		t.Fatal("resolve(\"id\") should match")
	}
	if v != "a" && v != "b" {
		t.Errorf("resolve(\"id\") = %v, want one of the two spellings' values", v)
	}
}

func TestResolveAliasOrder(t *testing.T) {
	idx := mustIndex(t, `{"lng": 1.0, "longitude": 2.0}`)

	// Aliases are tried in the order given, not payload order.
	if v, _ := idx.resolve("longitude", "lng"); v != 2.0 {
		t.Errorf("resolve preferred wrong alias: got %v, want 2", v)
	}
}

func TestEntityStringSectionBareNames(t *testing.T) {
	top := mustIndex(t, `{"tracker": {"id": "T1"}, "id": "A1"}`)
	sec := top.section([]string{"tracker"})
	if sec == nil {
		t.Fatal("tracker section not found")
	}

	// Bare "id" inside the section resolves to the tracker.
	got, ok := entityString(sec, top, []string{"tracker id", "tracker_id"}, "id")
	if !ok || got != "T1" {
		t.Errorf("section id = %q, %v; want T1, true", got, ok)
	}

	// Without a section, the bare name must not bleed in from top level.
	got, ok = entityString(nil, top, []string{"tracker id", "tracker_id"}, "id")
	if ok {
		t.Errorf("top-level bare id must not resolve for the tracker, got %q", got)
	}
}

func TestAsString(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   string
		wantOK bool
	}{
		{"string", "  A1  ", "A1", true},
		{"empty string", "   ", "", false},
		{"number", float64(42), "42", true},
		{"float keeps precision", 12.97, "12.97", true},
		{"object", map[string]interface{}{}, "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asString(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("asString(%v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   float64
		wantOK bool
	}{
		{"float", 12.97, 12.97, true},
		{"numeric string", " 77.59 ", 77.59, true},
		{"garbage string", "north", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asFloat(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("asFloat(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
