package flow

import (
	"math/rand"
	"testing"
)

func TestSpawnCount(t *testing.T) {
	tests := []struct {
		category string
		want     int
	}{
		{CategoryBulk, 500},
		{CategoryGranular, 300},
		{CategoryMetal, 100},
		{CategoryPlastic, 100},
		{"", 100},
		{"unknown", 100},
	}

	for _, tt := range tests {
		if got := SpawnCount(tt.category); got != tt.want {
			t.Errorf("SpawnCount(%q) = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestSpawnBatch(t *testing.T) {
	m := Material{
		ID:       "sand",
		Category: CategoryGranular,
		Properties: Properties{
			Density:  1.6,
			Friction: 0.97,
			Size:     2,
			Color:    "#d9c48a",
		},
	}
	bounds := Bounds{Width: 800, Height: 600}
	rng := rand.New(rand.NewSource(1))

	particles := SpawnBatch(m, bounds, rng)

	if len(particles) != 300 {
		t.Fatalf("Expected 300 particles for granular material, got %d", len(particles))
	}

	for i, p := range particles {
		if p.Radius != 2 {
			t.Fatalf("particle %d: expected radius 2, got %g", i, p.Radius)
		}
		if p.Density != 1.6 || p.Friction != 0.97 {
			t.Fatalf("particle %d: material properties not copied: %+v", i, p)
		}
		if p.Color != "#d9c48a" {
			t.Fatalf("particle %d: expected material color, got %q", i, p.Color)
		}
		if p.X < p.Radius || p.X > bounds.Width-p.Radius {
			t.Fatalf("particle %d: spawned outside horizontal bounds: x=%g", i, p.X)
		}
		if p.Y < 0 || p.Y > bounds.Height/3 {
			t.Fatalf("particle %d: expected spawn in upper third, got y=%g", i, p.Y)
		}
	}
}

func TestSpawnBatch_DefaultsRadius(t *testing.T) {
	m := Material{ID: "x", Category: CategoryMetal}
	rng := rand.New(rand.NewSource(1))

	particles := SpawnBatch(m, Bounds{Width: 100, Height: 100}, rng)

	if len(particles) != 100 {
		t.Fatalf("Expected 100 particles, got %d", len(particles))
	}
	if particles[0].Radius != 2 {
		t.Errorf("Expected fallback radius 2 for zero size, got %g", particles[0].Radius)
	}
}
