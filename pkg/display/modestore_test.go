package display

import (
	"path/filepath"
	"testing"
)

func testMode(name string) StoredMode {
	return StoredMode{
		Name:      name,
		Width:     2336,
		Height:    1080,
		RefreshHz: 60,
	}
}

func TestModeStoreMissingFileIsEmpty(t *testing.T) {
	store, err := LoadModeStore(filepath.Join(t.TempDir(), "modes.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(store.List()) != 0 {
		t.Fatalf("expected empty store, got %d modes", len(store.List()))
	}
}

func TestModeStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.toml")

	store, err := LoadModeStore(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	mode := testMode("2336x1080_60.00")
	mode.ReducedBlanking = true
	if err := store.Add(mode); err != nil {
		t.Fatalf("add: %v", err)
	}

	reloaded, err := LoadModeStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Get("2336x1080_60.00")
	if !ok {
		t.Fatal("mode not found after reload")
	}
	if got != mode {
		t.Fatalf("reloaded mode %+v, want %+v", got, mode)
	}
}

func TestModeStoreAddReplacesByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.toml")
	store, _ := LoadModeStore(path)

	if err := store.Add(testMode("panel")); err != nil {
		t.Fatalf("add: %v", err)
	}
	updated := testMode("panel")
	updated.RefreshHz = 75
	if err := store.Add(updated); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if n := len(store.List()); n != 1 {
		t.Fatalf("store holds %d modes, want 1", n)
	}
	got, _ := store.Get("panel")
	if got.RefreshHz != 75 {
		t.Fatalf("refresh %.1f after replace, want 75", got.RefreshHz)
	}
}

func TestModeStoreRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.toml")
	store, _ := LoadModeStore(path)

	if err := store.Add(testMode("panel")); err != nil {
		t.Fatalf("add: %v", err)
	}
	removed, err := store.Remove("panel")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}
	removed, err = store.Remove("panel")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Fatal("removal reported for absent mode")
	}
}

func TestModeStoreRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.toml")
	store, _ := LoadModeStore(path)

	if err := store.Add(StoredMode{Width: 1, Height: 1, RefreshHz: 60}); err == nil {
		t.Fatal("expected error for unnamed mode")
	}
	if err := store.Add(StoredMode{Name: "x", RefreshHz: 60}); err == nil {
		t.Fatal("expected error for zero dimensions")
	}
	if err := store.Add(StoredMode{Name: "x", Width: 1, Height: 1}); err == nil {
		t.Fatal("expected error for non-positive refresh")
	}
}
