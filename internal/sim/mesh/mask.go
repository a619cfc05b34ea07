package mesh

import (
	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/voxel"
)

const size = chunk.Size

// Axis columns. Each column holds one bit per cell along the swept axis at
// bit k+1, with bits 0 and size+1 read from the neighboring chunks.
const (
	axisY = iota // index x + z*size, bit y+1
	axisX        // index y + z*size, bit x+1
	axisZ        // index x + y*size, bit z+1
)

// Masks holds padded occupancy columns for the three axes.
type Masks [3][chunk.Area]uint64

// FaceMasks holds exposed-face bits per face direction. Bit k of a column is
// the cell at depth k along the face normal's axis.
type FaceMasks [6][chunk.Area]uint32

// axisFaces lists the positive then negative face swept along each axis.
var axisFaces = [3][2]voxel.Face{
	axisY: {voxel.Top, voxel.Bottom},
	axisX: {voxel.Right, voxel.Left},
	axisZ: {voxel.Front, voxel.Back},
}

// BuildMasks samples pred over the cluster's center chunk and the one-cell
// border of its face neighbors.
func BuildMasks(c *chunk.Cluster, pred func(voxel.Voxel) bool) *Masks {
	m := new(Masks)
	g := c.Center()
	for y := 0; y < size; y++ {
		for z := 0; z < size; z++ {
			for x := 0; x < size; x++ {
				if !pred(g.At(x, y, z)) {
					continue
				}
				m[axisY][x+z*size] |= 1 << (y + 1)
				m[axisX][y+z*size] |= 1 << (x + 1)
				m[axisZ][x+y*size] |= 1 << (z + 1)
			}
		}
	}
	for a := 0; a < size; a++ {
		for b := 0; b < size; b++ {
			// a, b are (x, z) for Y columns, (y, z) for X and (x, y) for Z.
			if pred(c.At(a, -1, b)) {
				m[axisY][a+b*size] |= 1
			}
			if pred(c.At(a, size, b)) {
				m[axisY][a+b*size] |= 1 << (size + 1)
			}
			if pred(c.At(-1, a, b)) {
				m[axisX][a+b*size] |= 1
			}
			if pred(c.At(size, a, b)) {
				m[axisX][a+b*size] |= 1 << (size + 1)
			}
			if pred(c.At(a, b, -1)) {
				m[axisZ][a+b*size] |= 1
			}
			if pred(c.At(a, b, size)) {
				m[axisZ][a+b*size] |= 1 << (size + 1)
			}
		}
	}
	return m
}

// Cull extracts exposed faces: a positive face survives where the next cell
// along the axis is clear, a negative face where the previous one is.
func Cull(m *Masks) *FaceMasks {
	f := new(FaceMasks)
	for axis, faces := range axisFaces {
		for i := 0; i < chunk.Area; i++ {
			col := m[axis][i]
			f[faces[0]][i] = uint32((col &^ (col >> 1)) >> 1)
			f[faces[1]][i] = uint32((col &^ (col << 1)) >> 1)
		}
	}
	return f
}

// cellOf maps a face column index and depth back to local coordinates.
func cellOf(f voxel.Face, i, depth int) (x, y, z int) {
	a, b := i%size, i/size
	switch f {
	case voxel.Top, voxel.Bottom:
		return a, depth, b
	case voxel.Right, voxel.Left:
		return depth, a, b
	}
	return a, b, depth
}
