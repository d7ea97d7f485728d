package flow

import (
	"math"
	"math/rand"
	"testing"
)

func testBounds() Bounds {
	return Bounds{Width: 800, Height: 600}
}

func TestStep_FrictionDecaysSpeed(t *testing.T) {
	p := StepParams{Gravity: 0, GravityScale: 0.01, Speed: 1, Restitution: 0.8}
	particles := []Particle{
		{X: 400, Y: 100, VX: 5, VY: -3, Radius: 2, Density: 1, Friction: 0.9},
		{X: 200, Y: 200, VX: -2, VY: 4, Radius: 2, Density: 3, Friction: 0.5},
	}

	prev := make([]float64, len(particles))
	for i, pt := range particles {
		prev[i] = math.Hypot(pt.VX, pt.VY)
	}

	for tick := 0; tick < 50; tick++ {
		Step(particles, p, testBounds())
		for i, pt := range particles {
			speed := math.Hypot(pt.VX, pt.VY)
			if speed > prev[i] {
				t.Fatalf("tick %d particle %d: speed increased from %g to %g with zero gravity", tick, i, prev[i], speed)
			}
			prev[i] = speed
		}
	}

	for i, speed := range prev {
		if speed > 0.1 {
			t.Errorf("particle %d: speed %g did not decay toward zero", i, speed)
		}
	}
}

func TestStep_LeftWallReflectsInward(t *testing.T) {
	p := StepParams{Gravity: 0, GravityScale: 0.01, Speed: 1, Restitution: 0.8}
	particles := []Particle{
		{X: 1, Y: 100, VX: -4, VY: 0, Radius: 2, Density: 1, Friction: 1},
	}

	Step(particles, p, testBounds())

	pt := particles[0]
	if pt.VX != -0.8*-4 {
		t.Errorf("Expected vx' = -0.8*vx = 3.2, got %g", pt.VX)
	}
	if pt.VX <= 0 {
		t.Errorf("Expected reflected velocity to point inward, got %g", pt.VX)
	}
	if pt.X != pt.Radius {
		t.Errorf("Expected x clamped to radius %g, got %g", pt.Radius, pt.X)
	}
}

func TestStep_RightWallReflects(t *testing.T) {
	p := StepParams{Gravity: 0, GravityScale: 0.01, Speed: 1, Restitution: 0.8}
	particles := []Particle{
		{X: 799, Y: 100, VX: 4, VY: 0, Radius: 2, Density: 1, Friction: 1},
	}

	Step(particles, p, testBounds())

	pt := particles[0]
	if pt.VX >= 0 {
		t.Errorf("Expected reflected velocity to point inward, got %g", pt.VX)
	}
	if pt.X != testBounds().Width-pt.Radius {
		t.Errorf("Expected x clamped to %g, got %g", testBounds().Width-pt.Radius, pt.X)
	}
}

func TestStep_FloorClampsY(t *testing.T) {
	p := DefaultParams()
	bounds := testBounds()
	particles := []Particle{
		{X: 400, Y: 650, VX: 0, VY: 10, Radius: 3, Density: 2, Friction: 0.98},
	}

	Step(particles, p, bounds)

	pt := particles[0]
	if pt.Y > bounds.Height-pt.Radius {
		t.Errorf("Expected y <= %g after floor clamp, got %g", bounds.Height-pt.Radius, pt.Y)
	}
	if pt.VY >= 0 {
		t.Errorf("Expected floor bounce to invert vy, got %g", pt.VY)
	}
}

func TestStep_PureTranslation(t *testing.T) {
	// gravity=0, friction=1, speed=1: after N ticks the particle has moved
	// exactly N times its initial velocity.
	p := StepParams{Gravity: 0, GravityScale: 0.01, Speed: 1, Restitution: 0.8}
	const n = 40
	particles := []Particle{
		{X: 100, Y: 100, VX: 1.5, VY: 2.5, Radius: 2, Density: 1, Friction: 1},
	}

	for i := 0; i < n; i++ {
		Step(particles, p, testBounds())
	}

	pt := particles[0]
	wantX := 100 + n*1.5
	wantY := 100 + n*2.5
	if math.Abs(pt.X-wantX) > 1e-9 || math.Abs(pt.Y-wantY) > 1e-9 {
		t.Errorf("Expected position (%g, %g), got (%g, %g)", wantX, wantY, pt.X, pt.Y)
	}
	if pt.VX != 1.5 || pt.VY != 2.5 {
		t.Errorf("Expected velocity unchanged, got (%g, %g)", pt.VX, pt.VY)
	}
}

func TestStep_DensityCouplesIntoGravity(t *testing.T) {
	p := StepParams{Gravity: 10, GravityScale: 0.01, Speed: 1, Restitution: 0.8}
	particles := []Particle{
		{X: 100, Y: 100, Radius: 2, Density: 1, Friction: 1},
		{X: 200, Y: 100, Radius: 2, Density: 5, Friction: 1},
	}

	Step(particles, p, testBounds())

	light, heavy := particles[0], particles[1]
	if heavy.VY <= light.VY {
		t.Errorf("Expected denser particle to accelerate faster: light vy=%g heavy vy=%g", light.VY, heavy.VY)
	}
	if light.VY != 10*1*0.01 {
		t.Errorf("Expected light vy = 0.1, got %g", light.VY)
	}
	if heavy.VY != 10*5*0.01 {
		t.Errorf("Expected heavy vy = 0.5, got %g", heavy.VY)
	}
}

func TestStep_SpeedMultiplierScalesIntegration(t *testing.T) {
	p := StepParams{Gravity: 0, GravityScale: 0.01, Speed: 2, Restitution: 0.8}
	particles := []Particle{
		{X: 100, Y: 100, VX: 3, VY: 1, Radius: 2, Density: 1, Friction: 1},
	}

	Step(particles, p, testBounds())

	if particles[0].X != 106 || particles[0].Y != 102 {
		t.Errorf("Expected (106, 102), got (%g, %g)", particles[0].X, particles[0].Y)
	}
}

func TestStep_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := make([]Particle, 100)
	for i := range a {
		a[i] = Particle{
			X:        rng.Float64() * 700,
			Y:        rng.Float64() * 500,
			VX:       rng.Float64()*4 - 2,
			VY:       rng.Float64()*4 - 2,
			Radius:   2,
			Density:  1 + rng.Float64()*5,
			Friction: 0.95,
		}
	}

	// Same set, reversed order.
	b := make([]Particle, len(a))
	for i := range a {
		b[i] = a[len(a)-1-i]
	}

	p := DefaultParams()
	Step(a, p, testBounds())
	Step(b, p, testBounds())

	for i := range a {
		j := len(a) - 1 - i
		if a[i] != b[j] {
			t.Fatalf("Particle update depended on slice order: %v vs %v", a[i], b[j])
		}
	}
}

func TestStep_StaysWithinBounds(t *testing.T) {
	bounds := testBounds()
	rng := rand.New(rand.NewSource(11))
	particles := make([]Particle, 200)
	for i := range particles {
		particles[i] = Particle{
			X:        rng.Float64() * bounds.Width,
			Y:        rng.Float64() * bounds.Height,
			VX:       rng.Float64()*20 - 10,
			VY:       rng.Float64() * 20,
			Radius:   3,
			Density:  2,
			Friction: 0.98,
		}
	}

	p := DefaultParams()
	for tick := 0; tick < 500; tick++ {
		Step(particles, p, bounds)
		for i, pt := range particles {
			if pt.X < pt.Radius || pt.X > bounds.Width-pt.Radius {
				t.Fatalf("tick %d particle %d escaped horizontally: x=%g", tick, i, pt.X)
			}
			if pt.Y > bounds.Height-pt.Radius {
				t.Fatalf("tick %d particle %d fell through the floor: y=%g", tick, i, pt.Y)
			}
		}
	}
}

// fixedDrift pushes every particle by a constant offset.
type fixedDrift struct {
	dx, dy float64
}

func (d fixedDrift) At(x, y float64, tick int64) (float64, float64) {
	return d.dx, d.dy
}

func TestStep_DriftFieldApplies(t *testing.T) {
	p := StepParams{Gravity: 0, GravityScale: 0.01, Speed: 1, Restitution: 0.8, Drift: fixedDrift{dx: 1, dy: 0}}
	particles := []Particle{
		{X: 100, Y: 100, Radius: 2, Density: 1, Friction: 1},
	}

	Step(particles, p, testBounds())

	if particles[0].VX != 1 {
		t.Errorf("Expected drift to add vx=1, got %g", particles[0].VX)
	}
	if particles[0].X != 101 {
		t.Errorf("Expected x=101 after drift integration, got %g", particles[0].X)
	}
}
