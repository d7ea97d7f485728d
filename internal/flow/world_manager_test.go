package flow

import (
	"testing"
	"time"
)

func TestWorldManager_CreateWorld(t *testing.T) {
	wm := NewWorldManager()

	w, err := wm.CreateWorld("w1", Bounds{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("CreateWorld failed: %v", err)
	}
	if w.ID() != "w1" {
		t.Errorf("Expected world ID 'w1', got '%s'", w.ID())
	}

	if _, err := wm.CreateWorld("w1", Bounds{Width: 100, Height: 100}); err == nil {
		t.Error("Expected error creating duplicate world")
	}
}

func TestWorldManager_GetWorld(t *testing.T) {
	wm := NewWorldManager()
	wm.CreateWorld("w1", Bounds{Width: 800, Height: 600})

	w, ok := wm.GetWorld("w1")
	if !ok || w == nil {
		t.Fatal("Expected to find world 'w1'")
	}

	if _, ok := wm.GetWorld("missing"); ok {
		t.Error("Expected lookup of unknown world to fail")
	}
}

func TestWorldManager_DeleteWorld(t *testing.T) {
	wm := NewWorldManager()
	w, _ := wm.CreateWorld("w1", Bounds{Width: 800, Height: 600})
	w.Spawn(sandMaterial())
	w.Run(time.Millisecond)

	if err := wm.DeleteWorld("w1"); err != nil {
		t.Fatalf("DeleteWorld failed: %v", err)
	}
	if _, ok := wm.GetWorld("w1"); ok {
		t.Error("Expected world to be gone after delete")
	}

	// Delete stops the ticking goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for w.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if w.IsRunning() {
		t.Error("Expected deleted world to be stopped")
	}

	if err := wm.DeleteWorld("w1"); err == nil {
		t.Error("Expected error deleting unknown world")
	}
}

func TestWorldManager_ListWorlds(t *testing.T) {
	wm := NewWorldManager()

	if len(wm.ListWorlds()) != 0 {
		t.Error("Expected no worlds initially")
	}

	wm.CreateWorld("w1", Bounds{Width: 100, Height: 100})
	wm.CreateWorld("w2", Bounds{Width: 100, Height: 100})

	ids := wm.ListWorlds()
	if len(ids) != 2 {
		t.Fatalf("Expected 2 worlds, got %d", len(ids))
	}
	seen := map[WorldID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["w1"] || !seen["w2"] {
		t.Errorf("Expected w1 and w2, got %v", ids)
	}
}
