package flow

// MaterialID is a unique identifier for a material.
type MaterialID string

// Material categories. The category drives how many particles a spawn
// produces (see SpawnCount).
const (
	CategoryBulk     = "bulk"
	CategoryGranular = "granular"
	CategoryMetal    = "metal"
	CategoryPlastic  = "plastic"
)

// Properties holds the physical parameters of a material that drive
// particle behavior. Density couples into gravity, friction is the
// per-tick velocity retention factor, elasticity feeds sizing and
// classification heuristics.
type Properties struct {
	Density    float64 `json:"density"`
	Friction   float64 `json:"friction"`
	Elasticity float64 `json:"elasticity"`
	Size       float64 `json:"size"`
	Color      string  `json:"color"`
}

// Material represents a named entry in the catalog. Materials are static,
// read-only inputs to particle creation; they are never mutated by the
// simulation.
type Material struct {
	ID         MaterialID `json:"id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Properties Properties `json:"properties"`
	Tags       []string   `json:"tags,omitempty"`
	Confidence float64    `json:"confidence"`
}
