package chunk

import "voxelstream.ai/internal/sim/voxel"

type EntityKind uint8

const (
	Seed EntityKind = iota + 1
)

func (k EntityKind) String() string {
	if k == Seed {
		return "seed"
	}
	return "entity?"
}

// Entity is a decoration marker at a global voxel position.
type Entity struct {
	Kind    EntityKind
	X, Y, Z int
}

// HashTable is a fixed table of small pseudo-random integers.
type HashTable []int

func (h HashTable) At(i int) int { return h[voxel.Mod(i, len(h))] }

// GenerateEntities scans the grid for grass cells selected by the hash table.
// It only reads g, so it is safe to run on a shared grid.
func GenerateEntities(pos voxel.ChunkPos, g *Grid, hash HashTable) []Entity {
	var out []Entity
	ox, oy, oz := pos.Origin()
	for y := 0; y < Size; y++ {
		for z := 0; z < Size; z++ {
			for x := 0; x < Size; x++ {
				if g.At(x, y, z) != voxel.Grass {
					continue
				}
				gx, gy, gz := ox+x, oy+y, oz+z
				if hash.At(gx*3+gz*17) < 1 {
					out = append(out, Entity{Kind: Seed, X: gx, Y: gy, Z: gz})
				}
			}
		}
	}
	return out
}
