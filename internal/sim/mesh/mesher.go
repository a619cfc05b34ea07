package mesh

import (
	"math/bits"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/voxel"
)

// Mesh is the packed vertex stream of one chunk, six vertices per quad.
// Opaque geometry comes first; the remaining vertices are water.
type Mesh struct {
	Pos      voxel.ChunkPos
	Version  uint64
	Vertices []uint32
	Opaque   int
}

func (m Mesh) Quads() int      { return len(m.Vertices) / 6 }
func (m Mesh) Water() []uint32 { return m.Vertices[m.Opaque:] }
func (m Mesh) Solid() []uint32 { return m.Vertices[:m.Opaque] }
func (m Mesh) IsEmpty() bool   { return len(m.Vertices) == 0 }

// BuildFunc turns a cluster into a mesh. Implementations must be safe to run
// concurrently on distinct clusters.
type BuildFunc func(c *chunk.Cluster) Mesh

var waterFaces = []voxel.Face{voxel.Top}

// Greedy meshes a cluster with merged quads: an opaque pass over all six
// faces, then a top-only water pass.
func Greedy(c *chunk.Cluster) Mesh {
	g := c.Center()
	var ps planeSet

	fm := Cull(BuildMasks(c, voxel.Voxel.Opaque))
	ps.fill(fm, voxel.Faces[:], g.At)
	out := ps.emit(make([]uint32, 0, 1024))
	opaque := len(out)

	fm = Cull(BuildMasks(c, voxel.IsWater))
	ps.fill(fm, waterFaces, func(int, int, int) voxel.Voxel { return voxel.Water })
	out = ps.emit(out)

	return Mesh{Pos: c.Pos, Vertices: out, Opaque: opaque}
}

// Culled emits one unit quad per exposed face, culling each voxel kind only
// against cells of the same kind. Water is meshed last, top faces only.
func Culled(c *chunk.Cluster) Mesh {
	var out []uint32
	for _, k := range voxel.Kinds {
		if k == voxel.Water {
			continue
		}
		out = appendUnitQuads(out, Cull(BuildMasks(c, voxel.Is(k))), voxel.Faces[:], k)
	}
	opaque := len(out)
	out = appendUnitQuads(out, Cull(BuildMasks(c, voxel.IsWater)), waterFaces, voxel.Water)
	return Mesh{Pos: c.Pos, Vertices: out, Opaque: opaque}
}

func appendUnitQuads(out []uint32, fm *FaceMasks, faces []voxel.Face, v voxel.Voxel) []uint32 {
	for _, f := range faces {
		for i, col := range fm[f] {
			u, w := i%size, i/size
			for col != 0 {
				depth := bits.TrailingZeros32(col)
				col &= col - 1
				out = appendQuad(out, f, v, depth, u, u+1, w, w+1)
			}
		}
	}
	return out
}

// ByName resolves a mesher by its config name.
func ByName(name string) (BuildFunc, bool) {
	switch name {
	case "", "greedy":
		return Greedy, true
	case "culled":
		return Culled, true
	}
	return nil, false
}
