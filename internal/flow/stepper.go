package flow

// Bounds is the rectangular region particles live in. The origin is the
// top-left corner, y grows downward (screen convention).
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DriftField perturbs particle velocity with a position-dependent offset,
// evaluated once per particle per tick. A nil field means no drift.
type DriftField interface {
	At(x, y float64, tick int64) (dx, dy float64)
}

// StepParams are the physical constants of a tick. The zero value is not
// usable; start from DefaultParams.
type StepParams struct {
	// Gravity is the downward acceleration applied each tick, scaled by
	// particle density and GravityScale. The density coupling is not real
	// physics (gravitational acceleration is mass-independent) but it is
	// the defining behavior of the flow demo: denser materials fall
	// faster. Set GravityScale so that Gravity*Density*GravityScale lands
	// in a per-tick range, e.g. 9.81*5.2*0.01 ≈ 0.51.
	Gravity      float64 `json:"gravity"`
	GravityScale float64 `json:"gravity_scale"`

	// Speed is the global multiplier applied to position integration.
	Speed float64 `json:"speed"`

	// Restitution is the fraction of velocity retained (with sign flip)
	// after a boundary bounce.
	Restitution float64 `json:"restitution"`

	// Drift, when non-nil, adds a turbulence offset to velocity before
	// integration. Not serialized; reattached by the owner after decode.
	Drift DriftField `json:"-"`

	// Tick is the current world tick, fed to the drift field so
	// turbulence animates over time.
	Tick int64 `json:"-"`
}

// DefaultParams returns the stock tick constants.
func DefaultParams() StepParams {
	return StepParams{
		Gravity:      9.81,
		GravityScale: 0.01,
		Speed:        1.0,
		Restitution:  0.8,
	}
}

// Step advances every particle by one tick in place: gravity, friction
// decay, integration, then boundary handling. Each particle updates
// independently of the others, so the result does not depend on slice
// order.
//
// Per particle:
//  1. vy += gravity * density * gravityScale
//  2. vx *= friction; vy *= friction
//  3. x += vx * speed; y += vy * speed
//  4. outside [radius, width-radius]: clamp x, vx = -restitution*vx
//  5. below height-radius: clamp y, vy = -restitution*vy
func Step(particles []Particle, p StepParams, bounds Bounds) {
	for i := range particles {
		stepParticle(&particles[i], p, bounds)
	}
}

func stepParticle(pt *Particle, p StepParams, bounds Bounds) {
	pt.VY += p.Gravity * pt.Density * p.GravityScale

	if p.Drift != nil {
		dx, dy := p.Drift.At(pt.X, pt.Y, p.Tick)
		pt.VX += dx
		pt.VY += dy
	}

	pt.VX *= pt.Friction
	pt.VY *= pt.Friction

	pt.X += pt.VX * p.Speed
	pt.Y += pt.VY * p.Speed

	// Walls: inelastic bounce, clamped so the particle never rests
	// outside the bounds.
	if pt.X < pt.Radius {
		pt.X = pt.Radius
		pt.VX = -pt.VX * p.Restitution
	} else if pt.X > bounds.Width-pt.Radius {
		pt.X = bounds.Width - pt.Radius
		pt.VX = -pt.VX * p.Restitution
	}

	// Floor.
	if pt.Y > bounds.Height-pt.Radius {
		pt.Y = bounds.Height - pt.Radius
		pt.VY = -pt.VY * p.Restitution
	}
}
