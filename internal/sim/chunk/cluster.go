package chunk

import "voxelstream.ai/internal/sim/voxel"

// Cluster is a read-only view of one chunk grid and its six face neighbors.
type Cluster struct {
	Pos       voxel.ChunkPos
	center    *Grid
	neighbors [6]*Grid
}

// NewCluster joins a center grid with neighbor grids indexed by voxel.Face.
// Missing neighbors read as Empty; a missing center is a caller bug.
func NewCluster(pos voxel.ChunkPos, center *Grid, neighbors [6]*Grid) *Cluster {
	if center == nil {
		panic("chunk: cluster center missing for " + pos.String())
	}
	return &Cluster{Pos: pos, center: center, neighbors: neighbors}
}

func (c *Cluster) Center() *Grid { return c.center }

// At returns the voxel at local coordinates, reaching one step into a face
// neighbor when exactly one axis is out of range. Anything further is Empty.
func (c *Cluster) At(x, y, z int) voxel.Voxel {
	if InBounds(x, y, z) {
		return c.center.At(x, y, z)
	}
	out, face := 0, voxel.Top
	for _, a := range [3]struct {
		v        int
		neg, pos voxel.Face
	}{{x, voxel.Left, voxel.Right}, {y, voxel.Bottom, voxel.Top}, {z, voxel.Back, voxel.Front}} {
		switch {
		case a.v == -1:
			out, face = out+1, a.neg
		case a.v == Size:
			out, face = out+1, a.pos
		case a.v < -1 || a.v > Size:
			return voxel.Empty
		}
	}
	if out != 1 || c.neighbors[face] == nil {
		return voxel.Empty
	}
	return c.neighbors[face].At(voxel.Mod(x, Size), voxel.Mod(y, Size), voxel.Mod(z, Size))
}
