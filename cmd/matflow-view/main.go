package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/matflow/matflow/internal/flow"
)

func main() {
	var (
		width      = flag.Int("width", 800, "window width")
		height     = flag.Int("height", 600, "window height")
		materialID = flag.String("material", "sand", "material ID to pour first")
	)
	flag.Parse()

	viewer, err := NewViewer(*width, *height, flow.MaterialID(*materialID))
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("matflow")
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}
