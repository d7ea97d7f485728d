package flow

import (
	"math/rand"
	"sync"
	"time"
)

// WorldID is a unique identifier for a world.
type WorldID string

// World owns one particle set and the physics parameters that drive it.
// A world is a single simulation session: spawning replaces the whole
// particle set, clearing discards it, and the stepper mutates it in place
// every tick. All access is serialized on the world lock, so the update
// and any reader (renderer, snapshot, API) never overlap.
type World struct {
	mu        sync.RWMutex
	id        WorldID
	bounds    Bounds
	params    StepParams
	material  *Material
	particles []Particle
	tick      int64
	rng       *rand.Rand
	drift     *TurbulenceField

	streamMgr   *StreamManager
	streamerIDs []string
	frameStride int

	snapshotDir   string
	snapshotEvery int

	stopCh    chan struct{}
	isRunning bool
	logger    Logger
}

// NewWorld creates a new world with the given ID and bounds.
func NewWorld(id WorldID, bounds Bounds) *World {
	return &World{
		id:          id,
		bounds:      bounds,
		params:      DefaultParams(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		frameStride: 1,
		stopCh:      make(chan struct{}),
		logger:      NewNoOpLogger(),
	}
}

// ID returns the world's identifier.
func (w *World) ID() WorldID {
	return w.id
}

// Bounds returns the world's bounds.
func (w *World) Bounds() Bounds {
	return w.bounds
}

// SetLogger injects a logger. Passing nil restores the no-op logger.
func (w *World) SetLogger(logger Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if logger == nil {
		logger = NewNoOpLogger()
	}
	w.logger = logger
}

// SetStreamManager wires the world to a stream manager. Frame events are
// emitted from Step once a manager is set.
func (w *World) SetStreamManager(mgr *StreamManager) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.streamMgr = mgr
}

// SetStreamers restricts frame delivery to the given streamer IDs.
// With no IDs set, frames go to every registered streamer.
func (w *World) SetStreamers(ids ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.streamerIDs = ids
}

// SetFrameStride emits a frame event only every n ticks. n <= 0 disables
// frame events entirely.
func (w *World) SetFrameStride(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frameStride = n
}

// SetSnapshotDir sets the directory periodic snapshots are written to.
func (w *World) SetSnapshotDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshotDir = dir
}

// SetSnapshotEveryNTicks writes a snapshot every n ticks. n <= 0 disables
// periodic snapshots.
func (w *World) SetSnapshotEveryNTicks(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshotEvery = n
}

// SetTurbulence enables the Perlin drift field with the given amplitude.
// Amplitude 0 disables turbulence.
func (w *World) SetTurbulence(amplitude float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if amplitude == 0 {
		w.drift = nil
		return
	}
	if w.drift == nil {
		w.drift = NewTurbulenceField(w.rng.Int63(), amplitude)
		return
	}
	w.drift.Amplitude = amplitude
}

// Params returns the current step parameters.
func (w *World) Params() StepParams {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.params
}

// SetParams replaces the step parameters.
func (w *World) SetParams(p StepParams) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.params = p
}

// Spawn replaces the particle set with a fresh batch for the material and
// resets the tick counter. The previous set is discarded.
func (w *World) Spawn(m Material) {
	w.mu.Lock()
	defer w.mu.Unlock()
	mat := m
	w.material = &mat
	w.particles = SpawnBatch(m, w.bounds, w.rng)
	w.tick = 0
	w.logger.Debugf("world %s: spawned %d particles of %s", w.id, len(w.particles), m.ID)
}

// PourAt adds a burst of count particles of the current material around
// (x, y), clamped into bounds. No-op if nothing has been spawned yet.
func (w *World) PourAt(x, y float64, count int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.material == nil || count <= 0 {
		return
	}

	m := *w.material
	radius := m.Properties.Size
	if radius <= 0 {
		radius = 2
	}

	for i := 0; i < count; i++ {
		px := x + w.rng.Float64()*20 - 10
		py := y + w.rng.Float64()*20 - 10
		px = min(max(px, radius), w.bounds.Width-radius)
		py = min(py, w.bounds.Height-radius)
		w.particles = append(w.particles, Particle{
			X:        px,
			Y:        py,
			VX:       w.rng.Float64()*2 - 1,
			VY:       w.rng.Float64() * 0.5,
			Radius:   radius,
			Color:    m.Properties.Color,
			Density:  m.Properties.Density,
			Friction: m.Properties.Friction,
		})
	}
}

// Clear discards the particle set.
func (w *World) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.material = nil
	w.particles = nil
	w.tick = 0
}

// Material returns the currently spawned material, if any.
func (w *World) Material() (Material, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.material == nil {
		return Material{}, false
	}
	return *w.material, true
}

// Particles returns a copy of the current particle set.
func (w *World) Particles() []Particle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Particle, len(w.particles))
	copy(out, w.particles)
	return out
}

// TickCount returns the number of ticks since the last spawn.
func (w *World) TickCount() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

// Step advances the world by one tick: stepper physics, then frame
// emission and periodic snapshot. Draw/readers always observe either the
// pre- or post-tick state, never a partial one.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.particles) == 0 {
		return
	}

	w.tick++
	p := w.params
	p.Tick = w.tick
	if w.drift != nil {
		p.Drift = w.drift
	}
	Step(w.particles, p, w.bounds)

	if w.streamMgr != nil && w.frameStride > 0 && w.tick%int64(w.frameStride) == 0 {
		w.emitFrameLocked()
	}

	if w.snapshotDir != "" && w.snapshotEvery > 0 && w.tick%int64(w.snapshotEvery) == 0 {
		if err := w.saveSnapshotLocked(); err != nil {
			w.logger.Errorf("world %s: periodic snapshot failed: %v", w.id, err)
		}
	}
}

// emitFrameLocked enqueues a frame event. Caller holds the lock.
func (w *World) emitFrameLocked() {
	ids := w.streamerIDs
	if len(ids) == 0 {
		ids = w.streamMgr.ListStreamers()
	}
	if len(ids) == 0 {
		return
	}

	particles := make([]Particle, len(w.particles))
	copy(particles, w.particles)

	var materialID MaterialID
	if w.material != nil {
		materialID = w.material.ID
	}

	w.streamMgr.Enqueue(FrameEvent{
		WorldID:       w.id,
		Tick:          w.tick,
		Timestamp:     time.Now().Unix(),
		MaterialID:    materialID,
		ParticleCount: len(particles),
		Particles:     particles,
	}, ids)
}

// Run starts the world ticking in a goroutine at the given interval, until
// Stop is called. Calling Run on a running world is a no-op; after Stop it
// can be called again to restart.
func (w *World) Run(interval time.Duration) {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	// Fresh stop channel for this run, so stop/restart cycles work.
	w.stopCh = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.Step()
			case <-w.stopCh:
				w.mu.Lock()
				w.isRunning = false
				w.mu.Unlock()
				return
			}
		}
	}()
}

// Stop stops the ticking goroutine. Stopping a stopped world is a no-op.
func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isRunning {
		return
	}
	close(w.stopCh)
}

// IsRunning reports whether the ticking goroutine is active.
func (w *World) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isRunning
}
