package main

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/matflow/matflow/internal/flow"
)

const turbulenceAmplitude = 0.3

// Viewer is the interactive frame loop: one Step per display tick, draw
// always after update, next tick scheduled by the engine once draw is done.
type Viewer struct {
	world     *flow.World
	catalog   *flow.Catalog
	materials []flow.Material
	matIdx    int

	paused     bool
	turbulence bool
}

// NewViewer creates a viewer with the builtin catalog, pouring the given
// material first.
func NewViewer(width, height int, first flow.MaterialID) (*Viewer, error) {
	catalog := flow.BuiltinCatalog()
	materials := catalog.Materials()

	matIdx := -1
	for i, m := range materials {
		if m.ID == first {
			matIdx = i
			break
		}
	}
	if matIdx == -1 {
		return nil, fmt.Errorf("unknown material %q", first)
	}

	world := flow.NewWorld("view", flow.Bounds{Width: float64(width), Height: float64(height)})
	world.Spawn(materials[matIdx])

	return &Viewer{
		world:     world,
		catalog:   catalog,
		materials: materials,
		matIdx:    matIdx,
	}, nil
}

// Update is called once per tick by Ebitengine.
func (v *Viewer) Update() error {
	v.handleInput()

	if v.paused {
		return nil
	}

	v.world.Step()
	return nil
}

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.world.Spawn(v.materials[v.matIdx])
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		v.matIdx = (v.matIdx + 1) % len(v.materials)
		v.world.Spawn(v.materials[v.matIdx])
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		v.turbulence = !v.turbulence
		if v.turbulence {
			v.world.SetTurbulence(turbulenceAmplitude)
		} else {
			v.world.SetTurbulence(0)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		v.world.Clear()
	}

	// Hold left mouse to pour more material at the cursor.
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		v.world.PourAt(float64(mx), float64(my), 3)
	}
}

// Draw is called each frame by Ebitengine, always after Update.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{16, 18, 24, 255})

	for _, p := range v.world.Particles() {
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), float32(p.Radius), parseHexColor(p.Color), true)
	}

	m := v.materials[v.matIdx]
	status := "running"
	if v.paused {
		status = "paused"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"%s (%s)  tick %d  particles %d  [%s]\nspace pause  R respawn  M material  T turbulence  C clear  click pour",
		m.Name, m.Category, v.world.TickCount(), len(v.world.Particles()), status,
	))
}

// Layout returns the logical screen size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	b := v.world.Bounds()
	return int(b.Width), int(b.Height)
}

// parseHexColor parses "#rrggbb" into an RGBA color. Bad input renders
// gray rather than failing the frame.
func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{128, 128, 128, 255}
	}
	r, err1 := strconv.ParseUint(hex[1:3], 16, 8)
	g, err2 := strconv.ParseUint(hex[3:5], 16, 8)
	b, err3 := strconv.ParseUint(hex[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return color.RGBA{128, 128, 128, 255}
	}
	return color.RGBA{uint8(r), uint8(g), uint8(b), 255}
}
