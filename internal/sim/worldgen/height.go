package worldgen

// Octave is one layer of the height sum.
type Octave struct {
	Scale     float64 `yaml:"scale" json:"scale"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	// Sign is +1 or -1; layers alternate to break up repetition.
	Sign float64 `yaml:"sign" json:"sign"`
}

func DefaultOctaves() []Octave {
	return []Octave{
		{Scale: 100.1, Amplitude: 32, Sign: 1},
		{Scale: 200.1, Amplitude: 32, Sign: -1},
		{Scale: 400.1, Amplitude: 32, Sign: 1},
		{Scale: 800.1, Amplitude: 32, Sign: -1},
	}
}

// Terrain maps world columns to integer heights.
type Terrain struct {
	noise   *Noise
	base    int
	octaves []Octave
}

func NewTerrain(seed int64, base int, octaves []Octave) *Terrain {
	if len(octaves) == 0 {
		octaves = DefaultOctaves()
	}
	return &Terrain{noise: NewNoise(seed), base: base, octaves: octaves}
}

// Height returns the column height at world (x, z). Each layer is truncated
// toward zero before it is added. Safe for concurrent use.
func (t *Terrain) Height(x, z float64) int {
	h := t.base
	for _, o := range t.octaves {
		layer := int(o.Amplitude * t.noise.Noise2D(x/o.Scale, z/o.Scale))
		if o.Sign < 0 {
			layer = -layer
		}
		h += layer
	}
	return h
}
