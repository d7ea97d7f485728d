package flow

import (
	"fmt"
	"math"
	"strconv"
)

// PixelStats are aggregate statistics of a scanned sample image, all
// normalized to [0,1]. They are computed by the caller (the engine never
// touches image data) and matched against the catalog.
type PixelStats struct {
	Brightness  float64 `json:"brightness"`
	Variance    float64 `json:"variance"`
	EdgeDensity float64 `json:"edge_density"`
}

// MatchResult is the outcome of classifying pixel statistics against a
// catalog entry.
type MatchResult struct {
	Material   Material `json:"material"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
}

// Classify matches pixel statistics against every material in the catalog
// and returns the best match. Scoring is a weighted distance between the
// observed stats and a per-material expectation derived from its color and
// category; the final confidence folds in the material's own catalog
// confidence. Deterministic given its inputs.
// Returns an error if the catalog is empty.
func Classify(stats PixelStats, catalog *Catalog) (MatchResult, error) {
	if catalog == nil || catalog.Len() == 0 {
		return MatchResult{}, fmt.Errorf("cannot classify: catalog is empty")
	}

	best := MatchResult{Score: -1}
	for _, m := range catalog.Materials() {
		score := matchScore(stats, m)
		if score > best.Score {
			best = MatchResult{
				Material:   m,
				Score:      score,
				Confidence: score * m.Confidence,
			}
		}
	}
	return best, nil
}

// matchScore returns a similarity in [0,1] between observed stats and the
// expectation for a material.
func matchScore(stats PixelStats, m Material) float64 {
	expected := expectedStats(m)

	db := stats.Brightness - expected.Brightness
	dv := stats.Variance - expected.Variance
	de := stats.EdgeDensity - expected.EdgeDensity

	// Brightness dominates: it is the only component grounded in the
	// material's actual color.
	dist := math.Sqrt(0.6*db*db + 0.25*dv*dv + 0.15*de*de)
	if dist > 1 {
		dist = 1
	}
	return 1 - dist
}

// expectedStats derives the pixel statistics a clean sample of the material
// should produce: brightness from the color's luminance, variance and edge
// density from the category (granular piles are busy, machined metal is
// flat).
func expectedStats(m Material) PixelStats {
	lum := colorLuminance(m.Properties.Color)

	var variance, edges float64
	switch m.Category {
	case CategoryGranular:
		variance, edges = 0.7, 0.8
	case CategoryBulk:
		variance, edges = 0.6, 0.6
	case CategoryMetal:
		variance, edges = 0.2, 0.3
	default:
		variance, edges = 0.4, 0.4
	}

	return PixelStats{Brightness: lum, Variance: variance, EdgeDensity: edges}
}

// colorLuminance parses a "#rrggbb" hex color and returns its relative
// luminance in [0,1]. Unparseable colors read as mid-gray.
func colorLuminance(hex string) float64 {
	if len(hex) != 7 || hex[0] != '#' {
		return 0.5
	}
	r, err1 := strconv.ParseUint(hex[1:3], 16, 8)
	g, err2 := strconv.ParseUint(hex[3:5], 16, 8)
	b, err3 := strconv.ParseUint(hex[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0.5
	}
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 255
}
