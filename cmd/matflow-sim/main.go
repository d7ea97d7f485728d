package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/matflow/matflow/internal/flow"
)

func main() {
	var (
		catalogFile = flag.String("catalog-file", "", "path to a JSON material catalog (optional, extends the builtin catalog)")
		materialID  = flag.String("material", "sand", "material ID to pour")
		ticks       = flag.Int("ticks", 300, "number of ticks to run")
		width       = flag.Float64("width", 800, "world width")
		height      = flag.Float64("height", 600, "world height")
		gravity     = flag.Float64("gravity", 9.81, "gravitational acceleration")
		speed       = flag.Float64("speed", 1.0, "global speed multiplier")
		turbulence  = flag.Float64("turbulence", 0, "turbulence amplitude (0 disables)")
		every       = flag.Int("report-every", 50, "print a progress line every N ticks (0 disables)")
	)
	flag.Parse()

	catalog := flow.BuiltinCatalog()
	if *catalogFile != "" {
		extra, err := loadCatalog(*catalogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading catalog: %v\n", err)
			os.Exit(1)
		}
		catalog.WithMaterials(extra.Materials()...)
	}

	material, ok := catalog.Material(flow.MaterialID(*materialID))
	if !ok {
		fmt.Fprintf(os.Stderr, "error: unknown material %q; available:\n", *materialID)
		for _, m := range catalog.Materials() {
			fmt.Fprintf(os.Stderr, "  %s (%s)\n", m.ID, m.Category)
		}
		os.Exit(1)
	}

	world := flow.NewWorld("sim", flow.Bounds{Width: *width, Height: *height})
	params := flow.DefaultParams()
	params.Gravity = *gravity
	params.Speed = *speed
	world.SetParams(params)
	if *turbulence > 0 {
		world.SetTurbulence(*turbulence)
	}

	world.Spawn(material)
	fmt.Printf("Pouring %s: %d particles into %gx%g\n", material.Name, len(world.Particles()), *width, *height)

	for i := 1; i <= *ticks; i++ {
		world.Step()
		if *every > 0 && i%*every == 0 {
			printProgress(world)
		}
	}

	printSummary(material, world)
}

func loadCatalog(path string) (*flow.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var cfg flow.CatalogConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing catalog JSON: %w", err)
	}

	catalog, err := flow.BuildCatalogFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return catalog, nil
}

func printProgress(world *flow.World) {
	mean, grounded := flowStats(world)
	fmt.Printf("  tick %4d: mean speed %.3f, grounded %d\n", world.TickCount(), mean, grounded)
}

func printSummary(material flow.Material, world *flow.World) {
	particles := world.Particles()
	mean, grounded := flowStats(world)

	speeds := make([]float64, len(particles))
	for i, p := range particles {
		speeds[i] = math.Hypot(p.VX, p.VY)
	}
	sort.Float64s(speeds)

	var median float64
	if len(speeds) > 0 {
		median = speeds[len(speeds)/2]
	}

	fmt.Printf("Simulation finished (material=%s, ticks=%d)\n", material.ID, world.TickCount())
	fmt.Printf("  particles:    %d\n", len(particles))
	fmt.Printf("  mean speed:   %.4f\n", mean)
	fmt.Printf("  median speed: %.4f\n", median)
	fmt.Printf("  grounded:     %d (%.0f%%)\n", grounded, 100*float64(grounded)/float64(max(len(particles), 1)))
}

// flowStats returns the mean speed and the number of particles resting on
// the floor.
func flowStats(world *flow.World) (float64, int) {
	particles := world.Particles()
	if len(particles) == 0 {
		return 0, 0
	}

	bounds := world.Bounds()
	var total float64
	grounded := 0
	for _, p := range particles {
		total += math.Hypot(p.VX, p.VY)
		if p.Y >= bounds.Height-p.Radius-0.5 {
			grounded++
		}
	}
	return total / float64(len(particles)), grounded
}
