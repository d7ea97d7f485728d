package flow

import "math/rand"

// Particle is a single moving grain of material. Particles are created in
// batches when a spawn happens, mutated in place every tick by the stepper,
// and discarded wholesale when the world is cleared or respawned.
type Particle struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Radius   float64 `json:"radius"`
	Color    string  `json:"color"`
	Density  float64 `json:"density"`
	Friction float64 `json:"friction"`
}

// SpawnCount returns how many particles a material of the given category
// produces on spawn: bulk materials pour 500, granular 300, everything
// else 100.
func SpawnCount(category string) int {
	switch category {
	case CategoryBulk:
		return 500
	case CategoryGranular:
		return 300
	default:
		return 100
	}
}

// SpawnBatch creates a fresh particle set for the given material inside
// bounds. Particles start spread across the upper third of the world with a
// small random velocity, so a pour settles visibly instead of appearing
// pre-stacked. The caller owns the returned slice.
func SpawnBatch(m Material, bounds Bounds, rng *rand.Rand) []Particle {
	count := SpawnCount(m.Category)
	radius := m.Properties.Size
	if radius <= 0 {
		radius = 2
	}

	particles := make([]Particle, count)
	for i := range particles {
		particles[i] = Particle{
			X:        radius + rng.Float64()*(bounds.Width-2*radius),
			Y:        radius + rng.Float64()*(bounds.Height/3-radius),
			VX:       rng.Float64()*2 - 1,
			VY:       rng.Float64() * 0.5,
			Radius:   radius,
			Color:    m.Properties.Color,
			Density:  m.Properties.Density,
			Friction: m.Properties.Friction,
		}
	}
	return particles
}
