package world

import (
	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/voxel"
)

// Plan lists the work one promotion pass found around the observer. A
// coordinate may appear in several lists; the passes run in order build,
// decorate, remesh. All lists are in ascending coordinate order.
type Plan struct {
	Build    []voxel.ChunkPos
	Decorate []voxel.ChunkPos
	Remesh   []voxel.ChunkPos
}

func (p Plan) Empty() bool {
	return len(p.Build) == 0 && len(p.Decorate) == 0 && len(p.Remesh) == 0
}

// Promote partitions the render cube around observer and its one-chunk
// border shell. Missing coordinates are built; inside the cube they are also
// decorated and remeshed. Resident undecorated chunks inside the cube are
// decorated, and Dirty ones remeshed. The shell is only ever built.
func (w *World) Promote(observer voxel.ChunkPos) Plan {
	var p Plan
	r := w.cfg.RenderDistance
	for x := -r - 1; x <= r+1; x++ {
		for y := -r - 1; y <= r+1; y++ {
			for z := -r - 1; z <= r+1; z++ {
				pos := observer.Add(x, y, z)
				c, ok := w.chunks[pos]
				shell := max(abs(x), abs(y), abs(z)) > r
				switch {
				case !ok && shell:
					p.Build = append(p.Build, pos)
				case !ok:
					p.Build = append(p.Build, pos)
					p.Decorate = append(p.Decorate, pos)
					p.Remesh = append(p.Remesh, pos)
				case shell:
				case !c.Decorated():
					p.Decorate = append(p.Decorate, pos)
					p.Remesh = append(p.Remesh, pos)
				case c.Status() == chunk.Dirty:
					p.Remesh = append(p.Remesh, pos)
				}
			}
		}
	}
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
