package mesh

import (
	"math/bits"

	"voxelstream.ai/internal/sim/voxel"
)

// Plane is a 32x32 bit matrix of exposed faces at one depth: row u, bit v.
type Plane [size]uint32

// GreedyPlane merges the set bits of p into rectangles and appends six
// packed vertices per rectangle to out. p is cleared in the process.
//
// Each row is scanned for maximal runs of set bits; a run extends across
// following rows only while they are exactly equal to the run.
func GreedyPlane(out []uint32, p *Plane, f voxel.Face, depth int, v voxel.Voxel) []uint32 {
	for u := 0; u < size; u++ {
		for p[u] != 0 {
			v0 := bits.TrailingZeros32(p[u])
			h := bits.TrailingZeros32(^(p[u] >> v0))
			run := ^uint32(0)
			if h < size {
				run = (uint32(1)<<h - 1) << v0
			}
			p[u] &^= run

			w := 1
			for u+w < size && p[u+w] == run {
				p[u+w] &^= run
				w++
			}
			out = appendQuad(out, f, v, depth, u, u+w, v0, v0+h)
		}
	}
	return out
}

// appendQuad emits two counter-clockwise triangles for the rectangle
// [u0,u1) x [v0,v1) on face f of the cells at the given depth.
func appendQuad(out []uint32, f voxel.Face, v voxel.Voxel, depth, u0, u1, v0, v1 int) []uint32 {
	d, d1 := uint32(depth), uint32(depth+1)
	a0, a1, b0, b1 := uint32(u0), uint32(u1), uint32(v0), uint32(v1)
	pk := func(x, y, z uint32) uint32 { return Pack(x, y, z, f, v) }
	switch f {
	case voxel.Top:
		return append(out,
			pk(a0, d1, b1), pk(a1, d1, b1), pk(a1, d1, b0),
			pk(a1, d1, b0), pk(a0, d1, b0), pk(a0, d1, b1))
	case voxel.Bottom:
		return append(out,
			pk(a0, d, b0), pk(a1, d, b0), pk(a1, d, b1),
			pk(a1, d, b1), pk(a0, d, b1), pk(a0, d, b0))
	case voxel.Right:
		return append(out,
			pk(d1, a0, b1), pk(d1, a0, b0), pk(d1, a1, b0),
			pk(d1, a1, b0), pk(d1, a1, b1), pk(d1, a0, b1))
	case voxel.Left:
		return append(out,
			pk(d, a0, b0), pk(d, a0, b1), pk(d, a1, b1),
			pk(d, a1, b1), pk(d, a1, b0), pk(d, a0, b0))
	case voxel.Front:
		return append(out,
			pk(a0, b0, d1), pk(a1, b0, d1), pk(a1, b1, d1),
			pk(a1, b1, d1), pk(a0, b1, d1), pk(a0, b0, d1))
	case voxel.Back:
		return append(out,
			pk(a1, b0, d), pk(a0, b0, d), pk(a0, b1, d),
			pk(a0, b1, d), pk(a1, b1, d), pk(a1, b0, d))
	}
	return out
}

// planeSet buckets exposed faces by face, voxel kind and depth. Planes are
// allocated on first use; used tracks occupied depths per bucket.
type planeSet struct {
	planes [6][1 << voxelBits]*[size]Plane
	used   [6][1 << voxelBits]uint32
}

func (s *planeSet) set(f voxel.Face, v voxel.Voxel, depth, u, w int) {
	ps := s.planes[f][v]
	if ps == nil {
		ps = new([size]Plane)
		s.planes[f][v] = ps
	}
	ps[depth][u] |= 1 << w
	s.used[f][v] |= 1 << depth
}

// fill scatters the exposed faces of fm into planes, tagging each with the
// voxel kind found in g.
func (s *planeSet) fill(fm *FaceMasks, faces []voxel.Face, kind func(x, y, z int) voxel.Voxel) {
	for _, f := range faces {
		for i, col := range fm[f] {
			for col != 0 {
				depth := bits.TrailingZeros32(col)
				col &= col - 1
				v := kind(cellOf(f, i, depth))
				s.set(f, v, depth, i%size, i/size)
			}
		}
	}
}

// emit runs the greedy merge over every occupied plane in a fixed order:
// face, then voxel id, then ascending depth.
func (s *planeSet) emit(out []uint32) []uint32 {
	for f := range s.planes {
		for v := range s.planes[f] {
			used := s.used[f][v]
			s.used[f][v] = 0
			for used != 0 {
				depth := bits.TrailingZeros32(used)
				used &= used - 1
				out = GreedyPlane(out, &s.planes[f][v][depth], voxel.Face(f), depth, voxel.Voxel(v))
			}
		}
	}
	return out
}
