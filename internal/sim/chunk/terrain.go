package chunk

import "voxelstream.ai/internal/sim/voxel"

// HeightFunc returns the terrain height of the world column at (x, z).
type HeightFunc func(x, z float64) int

// Bands are the global-y thresholds used to pick terrain materials.
type Bands struct {
	SeaLevel    int `yaml:"sea_level" json:"sea_level"`
	WaterColumn int `yaml:"water_column" json:"water_column"`
	SnowLine    int `yaml:"snow_line" json:"snow_line"`
	StoneLine   int `yaml:"stone_line" json:"stone_line"`
	GrassLine   int `yaml:"grass_line" json:"grass_line"`
	DirtLine    int `yaml:"dirt_line" json:"dirt_line"`
	DirtDepth   int `yaml:"dirt_depth" json:"dirt_depth"`
}

func DefaultBands() Bands {
	return Bands{
		SeaLevel:    0,
		WaterColumn: 4,
		SnowLine:    70,
		StoneLine:   35,
		GrassLine:   10,
		DirtLine:    7,
		DirtDepth:   3,
	}
}

// Material picks the voxel at global height gy in a column whose top solid
// cell is at h-1.
func (b Bands) Material(gy, h int) voxel.Voxel {
	top := h - 1
	switch {
	case gy >= b.SnowLine:
		return voxel.Snow
	case gy >= b.StoneLine:
		return voxel.Cobblestone
	case gy == top && gy >= b.GrassLine:
		return voxel.Grass
	case gy >= b.DirtLine && gy >= top-b.DirtDepth:
		return voxel.Dirt
	case gy >= b.DirtLine:
		return voxel.Stone
	}
	return voxel.Sand
}

// Build fills a new chunk at pos from the height function. The result is
// Empty when nothing was generated and Dirty otherwise.
func Build(pos voxel.ChunkPos, height HeightFunc, b Bands) *Chunk {
	g := new(Grid)
	ox, oy, oz := pos.Origin()
	for z := 0; z < Size; z++ {
		for x := 0; x < Size; x++ {
			gx, gz := ox+x, oz+z
			h := max(height(float64(gx), float64(gz)), 1)

			lo, hi := max(-oy, 0), min(h-oy, Size)
			for y := lo; y < hi; y++ {
				g[Index(x, y, z)] = b.Material(oy+y, h)
			}

			if b.Material(h-1, h) != voxel.Sand {
				continue
			}
			wlo, whi := max(h, b.SeaLevel+1)-oy, b.SeaLevel+b.WaterColumn-oy
			for y := max(wlo, 0); y <= min(whi, Size-1); y++ {
				g[Index(x, y, z)] = voxel.Water
			}
		}
	}
	return FromGrid(pos, g)
}
