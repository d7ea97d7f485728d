package flow

import "github.com/aquilax/go-perlin"

// Perlin parameters. Alpha/beta are the smoothness/harmonic-scaling knobs
// of the noise generator, n the number of octaves.
const (
	turbulenceAlpha   = 2.0
	turbulenceBeta    = 2.0
	turbulenceOctaves = 3

	// World-space frequency of the noise field and how fast it animates
	// per tick.
	turbulenceSpatialScale = 0.01
	turbulenceTimeScale    = 0.005
)

// TurbulenceField is a Perlin-noise drift field. It adds a smooth,
// position-dependent velocity perturbation so a pour wanders like material
// on a vibrating feeder instead of falling in straight columns.
// Amplitude 0 produces no drift.
type TurbulenceField struct {
	noise     *perlin.Perlin
	Amplitude float64
}

// NewTurbulenceField creates a turbulence field with the given seed and
// amplitude. The same seed always yields the same field.
func NewTurbulenceField(seed int64, amplitude float64) *TurbulenceField {
	return &TurbulenceField{
		noise:     perlin.NewPerlin(turbulenceAlpha, turbulenceBeta, turbulenceOctaves, seed),
		Amplitude: amplitude,
	}
}

// At returns the drift velocity at (x, y) for the given tick. The two
// components sample the noise at offset planes so they decorrelate.
func (f *TurbulenceField) At(x, y float64, tick int64) (float64, float64) {
	if f == nil || f.Amplitude == 0 {
		return 0, 0
	}
	t := float64(tick) * turbulenceTimeScale
	dx := f.noise.Noise3D(x*turbulenceSpatialScale, y*turbulenceSpatialScale, t)
	dy := f.noise.Noise3D(x*turbulenceSpatialScale+100, y*turbulenceSpatialScale+100, t)
	return dx * f.Amplitude, dy * f.Amplitude
}
