package flow

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// WorldSnapshot is a point-in-time capture of a world: the material being
// poured, the step parameters, and every particle.
type WorldSnapshot struct {
	WorldID    WorldID    `json:"world_id"`
	Tick       int64      `json:"tick"`
	MaterialID MaterialID `json:"material_id,omitempty"`
	Params     StepParams `json:"params"`
	Bounds     Bounds     `json:"bounds"`
	Particles  []Particle `json:"particles"`
}

// ValidateWorldSnapshot performs validation checks on a snapshot:
//   - bounds must be positive
//   - every particle must have a positive radius and finite state
//   - every particle must lie inside the bounds the stepper guarantees
//     (x within [radius, width-radius], y at or above the floor)
//
// Returns an error describing the first violation, nil otherwise.
func ValidateWorldSnapshot(snapshot WorldSnapshot) error {
	if snapshot.Bounds.Width <= 0 || snapshot.Bounds.Height <= 0 {
		return fmt.Errorf("snapshot has non-positive bounds: %gx%g", snapshot.Bounds.Width, snapshot.Bounds.Height)
	}

	for i, pt := range snapshot.Particles {
		if pt.Radius <= 0 {
			return fmt.Errorf("particle at index %d has non-positive radius", i)
		}
		for _, v := range []float64{pt.X, pt.Y, pt.VX, pt.VY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("particle at index %d has non-finite state", i)
			}
		}
		if pt.X < pt.Radius || pt.X > snapshot.Bounds.Width-pt.Radius {
			return fmt.Errorf("particle at index %d is outside horizontal bounds: x=%g", i, pt.X)
		}
		if pt.Y > snapshot.Bounds.Height-pt.Radius {
			return fmt.Errorf("particle at index %d is below the floor: y=%g", i, pt.Y)
		}
	}

	return nil
}

// EncodeWorldSnapshotJSON encodes a snapshot to JSON.
func EncodeWorldSnapshotJSON(snapshot WorldSnapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeWorldSnapshotJSON decodes a snapshot from JSON.
func DecodeWorldSnapshotJSON(data []byte) (WorldSnapshot, error) {
	var snapshot WorldSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return WorldSnapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Snapshot returns a point-in-time capture of the world.
func (w *World) Snapshot() WorldSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

// snapshotLocked builds a snapshot. Caller holds at least a read lock.
func (w *World) snapshotLocked() WorldSnapshot {
	particles := make([]Particle, len(w.particles))
	copy(particles, w.particles)

	var materialID MaterialID
	if w.material != nil {
		materialID = w.material.ID
	}

	return WorldSnapshot{
		WorldID:    w.id,
		Tick:       w.tick,
		MaterialID: materialID,
		Params:     w.params,
		Bounds:     w.bounds,
		Particles:  particles,
	}
}

// SnapshotPath returns the file the world's snapshot is written to.
// Empty if no snapshot directory is configured.
func (w *World) SnapshotPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotPathLocked()
}

func (w *World) snapshotPathLocked() string {
	if w.snapshotDir == "" {
		return ""
	}
	return filepath.Join(w.snapshotDir, string(w.id)+".json")
}

// SaveSnapshot writes the world's current state to the snapshot directory.
// Returns an error if no snapshot directory is configured.
func (w *World) SaveSnapshot() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.saveSnapshotLocked()
}

func (w *World) saveSnapshotLocked() error {
	path := w.snapshotPathLocked()
	if path == "" {
		return fmt.Errorf("snapshot directory not configured")
	}

	data, err := EncodeWorldSnapshotJSON(w.snapshotLocked())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a truncated
	// snapshot behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}

// RestoreSnapshot replaces the world's state with the snapshot's.
// The snapshot is validated first; the world's ID and bounds are kept.
func (w *World) RestoreSnapshot(snapshot WorldSnapshot, catalog *Catalog) error {
	if err := ValidateWorldSnapshot(snapshot); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	var material *Material
	if snapshot.MaterialID != "" && catalog != nil {
		if m, ok := catalog.Material(snapshot.MaterialID); ok {
			material = &m
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	particles := make([]Particle, len(snapshot.Particles))
	copy(particles, snapshot.Particles)

	w.particles = particles
	w.tick = snapshot.Tick
	w.params = snapshot.Params
	w.material = material
	return nil
}
