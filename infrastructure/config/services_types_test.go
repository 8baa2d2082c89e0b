package config

import (
	"sort"
	"testing"
)

func TestPresetSetGet(t *testing.T) {
	set := &PresetSet{
		Presets: map[string]*TracePreset{
			"nightly": {DSN: "postgres://ci-db/nightly", Description: "Nightly CI run"},
		},
	}

	t.Run("existing preset", func(t *testing.T) {
		p := set.Get("nightly")
		if p == nil {
			t.Fatal("Get() returned nil for existing preset")
		}
		if p.DSN != "postgres://ci-db/nightly" {
			t.Errorf("DSN = %s, want postgres://ci-db/nightly", p.DSN)
		}
	})

	t.Run("nonexistent preset", func(t *testing.T) {
		if set.Get("nonexistent") != nil {
			t.Error("Get() should return nil for nonexistent preset")
		}
	})

	t.Run("nil set", func(t *testing.T) {
		var nilSet *PresetSet
		if nilSet.Get("any") != nil {
			t.Error("Get() should return nil for a nil set")
		}
	})

	t.Run("nil presets map", func(t *testing.T) {
		empty := &PresetSet{Presets: nil}
		if empty.Get("any") != nil {
			t.Error("Get() should return nil for a nil presets map")
		}
	})
}

func TestPresetSetNames(t *testing.T) {
	set := &PresetSet{
		Presets: map[string]*TracePreset{
			"a": {DSN: "dsn-a"},
			"b": {DSN: "dsn-b"},
		},
	}

	t.Run("returns every name", func(t *testing.T) {
		names := set.Names()
		if len(names) != 2 {
			t.Fatalf("len(Names()) = %d, want 2", len(names))
		}
		sort.Strings(names)
		if names[0] != "a" || names[1] != "b" {
			t.Errorf("Names() = %v, want [a b]", names)
		}
	})

	t.Run("nil set", func(t *testing.T) {
		var nilSet *PresetSet
		if nilSet.Names() != nil {
			t.Error("Names() should return nil for a nil set")
		}
	})

	t.Run("nil presets map", func(t *testing.T) {
		empty := &PresetSet{Presets: nil}
		if empty.Names() != nil {
			t.Error("Names() should return nil for a nil presets map")
		}
	})
}

func TestTracePresetStruct(t *testing.T) {
	p := TracePreset{
		DSN:         "postgres://host/db",
		MemBudget:   "512MiB",
		Workers:     4,
		PeakFlops:   2.3e13,
		Description: "Test preset",
	}

	if p.DSN != "postgres://host/db" {
		t.Errorf("DSN = %s, want postgres://host/db", p.DSN)
	}
	if p.MemBudget != "512MiB" {
		t.Errorf("MemBudget = %s, want 512MiB", p.MemBudget)
	}
	if p.Workers != 4 {
		t.Errorf("Workers = %d, want 4", p.Workers)
	}
}
