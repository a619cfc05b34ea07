package chunk

import (
	"errors"
	"fmt"

	"voxelstream.ai/internal/sim/voxel"
)

const (
	Size   = voxel.ChunkSize
	Area   = voxel.ChunkArea
	Volume = voxel.ChunkVolume
)

var ErrOutOfBounds = errors.New("voxel out of chunk bounds")

// Grid is the dense voxel array of one chunk, linearized x + z*Size + y*Area.
type Grid [Volume]voxel.Voxel

func Index(x, y, z int) int { return x + z*Size + y*Area }

// Coords is the inverse of Index.
func Coords(i int) (x, y, z int) {
	return i % Size, i / Area, (i / Size) % Size
}

func InBounds(x, y, z int) bool {
	return uint(x) < Size && uint(y) < Size && uint(z) < Size
}

// At is the unchecked accessor; it panics like a slice index when misused.
func (g *Grid) At(x, y, z int) voxel.Voxel { return g[Index(x, y, z)] }

func (g *Grid) Get(x, y, z int) (voxel.Voxel, error) {
	if !InBounds(x, y, z) {
		return voxel.Empty, fmt.Errorf("get %d,%d,%d: %w", x, y, z, ErrOutOfBounds)
	}
	return g[Index(x, y, z)], nil
}

func (g *Grid) IsEmpty() bool {
	for _, v := range g {
		if v != voxel.Empty {
			return false
		}
	}
	return true
}
