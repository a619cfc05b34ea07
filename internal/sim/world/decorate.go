package world

import (
	"slices"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/voxel"
)

// replaceRule limits which existing voxels a decoration write may replace.
type replaceRule uint8

const (
	replaceAir  replaceRule = iota // only Empty
	replaceSoft                    // Empty or Leaf
	replaceAny                     // SetVoxel
)

func (r replaceRule) allows(v voxel.Voxel) bool {
	switch r {
	case replaceSoft:
		return v == voxel.Empty || v == voxel.Leaf
	case replaceAny:
		return true
	}
	return v == voxel.Empty
}

// edit is one recorded write in chunk-local coordinates.
type edit struct {
	x, y, z int
	v       voxel.Voxel
	rule    replaceRule
}

// EntityTask returns a scan job for the chunk at pos. The grid is captured
// on the calling goroutine; the job may run anywhere.
func (w *World) EntityTask(pos voxel.ChunkPos) func() []chunk.Entity {
	c, ok := w.chunks[pos]
	if !ok || c.Status() == chunk.Empty || c.Decorated() {
		return func() []chunk.Entity { return nil }
	}
	g, hash := c.Share(), w.hash
	return func() []chunk.Entity { return chunk.GenerateEntities(pos, g, hash) }
}

// Decorate applies scanned entities, one list per coordinate in positions,
// and marks those chunks decorated. Writes cross chunk boundaries, so this
// runs on the world goroutine. It returns every resident chunk it changed or
// finished, in ascending order.
func (w *World) Decorate(positions []voxel.ChunkPos, entities [][]chunk.Entity) []voxel.ChunkPos {
	touched := map[voxel.ChunkPos]struct{}{}
	for i, pos := range positions {
		c, ok := w.chunks[pos]
		if !ok || c.Decorated() {
			continue
		}
		if i < len(entities) {
			for _, e := range entities[i] {
				if e.Kind == chunk.Seed {
					w.buildTree(e.X, e.Y, e.Z, touched)
				}
			}
		}
		c.FinishDecoration()
		w.decorated[pos] = struct{}{}
		touched[pos] = struct{}{}
	}
	out := make([]voxel.ChunkPos, 0, len(touched))
	for pos := range touched {
		out = append(out, pos)
	}
	slices.SortFunc(out, voxel.Compare)
	return out
}

// BuildTreeAt grows a tree on the seed at world (x, y, z).
func (w *World) BuildTreeAt(x, y, z int) []voxel.ChunkPos {
	touched := map[voxel.ChunkPos]struct{}{}
	w.buildTree(x, y, z, touched)
	out := make([]voxel.ChunkPos, 0, len(touched))
	for pos := range touched {
		out = append(out, pos)
	}
	slices.SortFunc(out, voxel.Compare)
	return out
}

// buildTree places a trunk of 4 to 7 wood voxels above the seed, a leaf cap
// and four canopy layers whose half-widths shrink upwards.
func (w *World) buildTree(x, y, z int, touched map[voxel.ChunkPos]struct{}) {
	height := w.hash.At(x*13+y*3+z*3)%4 + 4
	// The seed voxel itself stays grass.
	for ty := 1; ty <= height; ty++ {
		w.paint(x, y+ty, z, voxel.Wood, replaceSoft, touched)
	}
	top := y + height + 1
	w.paint(x, top, z, voxel.Leaf, replaceAir, touched)

	for ty := 0; ty <= 3; ty++ {
		stride := (3 - ty) + w.hash.At(x*5+ty*11+z*13)%3
		for tx := -stride; tx <= stride; tx++ {
			for tz := -stride; tz <= stride; tz++ {
				w.paint(x+tx, top+ty, z+tz, voxel.Leaf, replaceAir, touched)
			}
		}
	}
}

// paint records a decoration write and applies it when the target chunk is
// resident. Writes to missing chunks are replayed by Insert.
func (w *World) paint(x, y, z int, v voxel.Voxel, rule replaceRule, touched map[voxel.ChunkPos]struct{}) {
	pos, lx, ly, lz := voxel.ChunkOf(x, y, z)
	e := edit{x: lx, y: ly, z: lz, v: v, rule: rule}
	w.record(pos, e)
	if c, ok := w.chunks[pos]; ok && w.apply(c, e) {
		touched[pos] = struct{}{}
	}
}

func (w *World) apply(c *chunk.Chunk, e edit) bool {
	old := c.At(e.x, e.y, e.z)
	if old == e.v || !e.rule.allows(old) {
		return false
	}
	return w.setLocal(c, e.x, e.y, e.z, e.v) == nil
}

// record appends e to the edit log of pos. An unconditional write
// supersedes every earlier write to the same cell.
func (w *World) record(pos voxel.ChunkPos, e edit) {
	es := w.edits[pos]
	if e.rule == replaceAny {
		es = slices.DeleteFunc(es, func(o edit) bool {
			return o.x == e.x && o.y == e.y && o.z == e.z
		})
	}
	w.edits[pos] = append(es, e)
}

// RecordedEdits returns the number of recorded writes.
func (w *World) RecordedEdits() int {
	n := 0
	for _, es := range w.edits {
		n += len(es)
	}
	return n
}
