package world

import (
	"errors"
	"slices"
	"testing"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/mesh"
	"voxelstream.ai/internal/sim/voxel"
	"voxelstream.ai/internal/sim/worldgen"
)

func flat(h int) chunk.HeightFunc { return func(float64, float64) int { return h } }

func newTestWorld(r int) *World {
	return New(WorldConfig{RenderDistance: r, Bands: chunk.DefaultBands()}, flat(20), worldgen.Hash)
}

// step runs one promotion pass to completion on the calling goroutine.
func step(t *testing.T, w *World, obs voxel.ChunkPos) Plan {
	t.Helper()
	p := w.Promote(obs)
	for _, pos := range p.Build {
		w.Insert(w.BuildTask(pos)())
	}
	ents := make([][]chunk.Entity, len(p.Decorate))
	for i, pos := range p.Decorate {
		ents[i] = w.EntityTask(pos)()
	}
	touched := w.Decorate(p.Decorate, ents)
	for _, pos := range append(p.Remesh, touched...) {
		j, ok := w.BeginMesh(pos)
		if !ok {
			continue
		}
		m := mesh.Greedy(j.Cluster)
		if !w.CommitMesh(pos, j.Version, chunk.Handle(len(m.Vertices)+1), len(m.Vertices)) {
			t.Fatalf("commit %v failed", pos)
		}
	}
	return p
}

func TestPromoteFreshWorld(t *testing.T) {
	w := newTestWorld(1)
	p := w.Promote(voxel.ChunkPos{})
	if len(p.Build) != 125 || len(p.Decorate) != 27 || len(p.Remesh) != 27 {
		t.Fatalf("build=%d decorate=%d remesh=%d", len(p.Build), len(p.Decorate), len(p.Remesh))
	}
	if !slices.IsSortedFunc(p.Build, voxel.Compare) || !slices.IsSortedFunc(p.Remesh, voxel.Compare) {
		t.Fatalf("plan not sorted")
	}
}

func TestStepSettles(t *testing.T) {
	w := newTestWorld(1)
	step(t, w, voxel.ChunkPos{})
	for _, pos := range w.Promote(voxel.ChunkPos{}).Remesh {
		c, _ := w.Chunk(pos)
		t.Fatalf("chunk %v still needs mesh: %v", pos, c.Status())
	}
	if p := w.Promote(voxel.ChunkPos{}); !p.Empty() {
		t.Fatalf("second promote not empty: %+v", p)
	}
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				c, ok := w.Chunk(voxel.ChunkPos{X: x, Y: y, Z: z})
				if !ok {
					t.Fatalf("missing chunk")
				}
				if s := c.Status(); s != chunk.Clean && s != chunk.Empty {
					t.Fatalf("chunk %v status=%v", c.Pos(), s)
				}
			}
		}
	}
}

func TestStatusTransitionsLegal(t *testing.T) {
	w := newTestWorld(1)
	var bad []string
	w.OnTransition(func(pos voxel.ChunkPos, from, to chunk.Status) {
		if !chunk.CanTransition(from, to) || to == chunk.Terrain {
			bad = append(bad, pos.String()+":"+from.String()+"->"+to.String())
		}
	})
	step(t, w, voxel.ChunkPos{})
	if err := w.SetVoxel(3, 25, 3, voxel.Stone); err != nil {
		t.Fatalf("set: %v", err)
	}
	step(t, w, voxel.ChunkPos{})
	step(t, w, voxel.ChunkPos{X: 1})
	if len(bad) != 0 {
		t.Fatalf("illegal transitions: %v", bad)
	}
}

func TestDecorationDeterministic(t *testing.T) {
	a, b := newTestWorld(1), newTestWorld(1)
	step(t, a, voxel.ChunkPos{})
	step(t, b, voxel.ChunkPos{})

	if !slices.Equal(a.Positions(), b.Positions()) {
		t.Fatalf("resident sets differ")
	}
	wood := 0
	for _, pos := range a.Positions() {
		ca, _ := a.Chunk(pos)
		cb, _ := b.Chunk(pos)
		if *ca.Share() != *cb.Share() {
			t.Fatalf("chunk %v differs between runs", pos)
		}
		for _, v := range ca.Share() {
			if v == voxel.Wood {
				wood++
			}
		}
	}
	if wood == 0 {
		t.Fatalf("expected trees on a grass plain")
	}
}

func TestBuildTreeAtShape(t *testing.T) {
	w := newTestWorld(1)
	for _, pos := range w.Promote(voxel.ChunkPos{}).Build {
		w.Insert(w.BuildTask(pos)())
	}

	x, y, z := 40, 19, 40
	w.BuildTreeAt(x, y, z)
	height := worldgen.Hash.At(x*13+y*3+z*3)%4 + 4
	if v, _ := w.GetVoxel(x, y, z); v != voxel.Grass {
		t.Fatalf("seed voxel = %v, want grass", v)
	}
	for ty := 1; ty <= height; ty++ {
		if v, _ := w.GetVoxel(x, y+ty, z); v != voxel.Wood {
			t.Fatalf("trunk y+%d = %v", ty, v)
		}
	}
	if v, _ := w.GetVoxel(x, y+height+1, z); v != voxel.Leaf {
		t.Fatalf("cap = %v", v)
	}
	stride := 3 + worldgen.Hash.At(x*5+z*13)%3
	if v, _ := w.GetVoxel(x+stride, y+height+1, z-stride); v != voxel.Leaf {
		t.Fatalf("canopy corner = %v", v)
	}
	if v, _ := w.GetVoxel(x+stride+1, y+height+1, z); v == voxel.Leaf {
		t.Fatalf("canopy too wide")
	}
}

func TestTreeIntoMissingChunkReplaysOnInsert(t *testing.T) {
	w := newTestWorld(0)
	w.Insert(w.BuildTask(voxel.ChunkPos{})())
	// seed at the top corner so the canopy reaches into the chunk above
	w.BuildTreeAt(31, 28, 31)

	above := voxel.ChunkPos{Y: 1}
	if _, ok := w.Chunk(above); ok {
		t.Fatalf("chunk above should not exist yet")
	}
	c := w.BuildTask(above)()
	w.Insert(c)
	if c.Status() != chunk.Dirty {
		t.Fatalf("replayed chunk status=%v", c.Status())
	}
	found := false
	for _, v := range c.Share() {
		if v == voxel.Leaf || v == voxel.Wood {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("decoration written before insert was lost")
	}
}

func TestSetVoxelErrorsAndNeighbors(t *testing.T) {
	w := newTestWorld(0)
	if err := w.SetVoxel(0, 0, 0, voxel.Stone); !errors.Is(err, ErrMissingChunk) {
		t.Fatalf("expected ErrMissingChunk, got %v", err)
	}
	step(t, w, voxel.ChunkPos{})
	left, _ := w.Chunk(voxel.ChunkPos{X: -1})
	left.FinishDecoration()
	if left.Status() != chunk.Dirty {
		t.Fatalf("left status=%v", left.Status())
	}
	if !w.CommitMesh(left.Pos(), left.Version(), 1, 0) {
		t.Fatalf("commit left failed")
	}
	if err := w.SetVoxel(0, 25, 5, voxel.Stone); err != nil {
		t.Fatalf("set: %v", err)
	}
	if left.Status() != chunk.Dirty {
		t.Fatalf("boundary write did not invalidate neighbor: %v", left.Status())
	}
}

func TestStaleMeshNotCommitted(t *testing.T) {
	w := newTestWorld(0)
	p := w.Promote(voxel.ChunkPos{})
	for _, pos := range p.Build {
		w.Insert(w.BuildTask(pos)())
	}
	w.Decorate(p.Decorate, nil)

	pos := voxel.ChunkPos{}
	j, ok := w.BeginMesh(pos)
	if !ok {
		t.Fatalf("expected mesh job")
	}
	if _, again := w.BeginMesh(pos); again {
		t.Fatalf("same version scheduled twice")
	}
	if err := w.SetVoxel(5, 25, 5, voxel.Stone); err != nil {
		t.Fatalf("set: %v", err)
	}
	if w.MeshCurrent(pos, j.Version) {
		t.Fatalf("mesh should be stale")
	}
	if w.CommitMesh(pos, j.Version, 1, 6) {
		t.Fatalf("stale commit accepted")
	}
	c, _ := w.Chunk(pos)
	if c.Status() != chunk.Dirty || !w.NeedsMesh(pos) {
		t.Fatalf("chunk should need another mesh, status=%v", c.Status())
	}
}

func TestEvictFarthestAndReplay(t *testing.T) {
	w := New(WorldConfig{RenderDistance: 0, MaxResident: 27, Bands: chunk.DefaultBands()}, flat(20), worldgen.Hash)
	step(t, w, voxel.ChunkPos{})
	step(t, w, voxel.ChunkPos{X: 4})
	if w.Len() <= 27 {
		t.Fatalf("expected more than budget before evict, got %d", w.Len())
	}
	before := w.RecordedEdits()
	evicted := w.Evict(voxel.ChunkPos{X: 4})
	if w.Len() != 27 {
		t.Fatalf("resident=%d want 27 (evicted %d)", w.Len(), len(evicted))
	}
	for _, pos := range evicted {
		if pos.Chebyshev(voxel.ChunkPos{X: 4}) <= 1 {
			t.Fatalf("evicted %v inside generated region", pos)
		}
	}
	if w.RecordedEdits() != before {
		t.Fatalf("eviction dropped recorded edits")
	}
}

func TestSetVoxelSurvivesEviction(t *testing.T) {
	w := New(WorldConfig{RenderDistance: 0, MaxResident: 27, Bands: chunk.DefaultBands()}, flat(20), worldgen.Hash)
	origin := voxel.ChunkPos{}
	step(t, w, origin)

	if err := w.SetVoxel(5, 25, 5, voxel.Stone); err != nil {
		t.Fatalf("set: %v", err)
	}
	n := w.RecordedEdits()
	if err := w.SetVoxel(5, 25, 5, voxel.Cobblestone); err != nil {
		t.Fatalf("set: %v", err)
	}
	if w.RecordedEdits() != n {
		t.Fatalf("rewrite of one cell grew the edit log: %d -> %d", n, w.RecordedEdits())
	}

	step(t, w, voxel.ChunkPos{X: 4})
	evicted := w.Evict(voxel.ChunkPos{X: 4})
	if !slices.Contains(evicted, origin) {
		t.Fatalf("origin chunk not evicted: %v", evicted)
	}
	if _, err := w.GetVoxel(5, 25, 5); !errors.Is(err, ErrMissingChunk) {
		t.Fatalf("get after evict err=%v", err)
	}

	step(t, w, origin)
	v, err := w.GetVoxel(5, 25, 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != voxel.Cobblestone {
		t.Fatalf("rebuilt voxel=%v want cobblestone", v)
	}
}

func TestClusterPanicsOnMissingCenter(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	newTestWorld(0).Cluster(voxel.ChunkPos{X: 9})
}
