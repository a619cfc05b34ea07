package worldgen

import (
	perlin "github.com/aquilax/go-perlin"
)

// Noise is seeded single-octave 2D Perlin noise with values in [-1, 1].
// Layering is left to Terrain.
type Noise struct {
	p *perlin.Perlin
}

func NewNoise(seed int64) *Noise {
	return &Noise{p: perlin.NewPerlin(2, 2, 1, seed)}
}

// Noise2D is safe for concurrent use; the permutation tables are only read.
func (n *Noise) Noise2D(x, y float64) float64 {
	return n.p.Noise2D(x, y)
}
