package world

import (
	"errors"
	"fmt"
	"slices"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/mesh"
	"voxelstream.ai/internal/sim/voxel"
)

var ErrMissingChunk = errors.New("chunk not resident")

// World owns the chunk map and drives the chunk lifecycle.
// All state must be accessed only from the goroutine that owns the world;
// background tasks only receive grids obtained through chunk.Share.
type World struct {
	cfg    WorldConfig
	height chunk.HeightFunc
	hash   chunk.HashTable

	chunks map[voxel.ChunkPos]*chunk.Chunk

	// edits records every decoration and SetVoxel write by target chunk so
	// that chunks built later, or rebuilt after eviction, receive them.
	edits     map[voxel.ChunkPos][]edit
	decorated map[voxel.ChunkPos]struct{}

	// inflight maps a chunk to the version currently being meshed.
	inflight map[voxel.ChunkPos]uint64

	onTransition chunk.TransitionFunc
}

func New(cfg WorldConfig, height chunk.HeightFunc, hash chunk.HashTable) *World {
	return &World{
		cfg:       cfg.normalized(),
		height:    height,
		hash:      hash,
		chunks:    map[voxel.ChunkPos]*chunk.Chunk{},
		edits:     map[voxel.ChunkPos][]edit{},
		decorated: map[voxel.ChunkPos]struct{}{},
		inflight:  map[voxel.ChunkPos]uint64{},
	}
}

func (w *World) Config() WorldConfig { return w.cfg }

// OnTransition registers fn for status changes of resident chunks.
func (w *World) OnTransition(fn chunk.TransitionFunc) {
	w.onTransition = fn
	for _, c := range w.chunks {
		c.Observe(fn)
	}
}

func (w *World) Chunk(pos voxel.ChunkPos) (*chunk.Chunk, bool) {
	c, ok := w.chunks[pos]
	return c, ok
}

func (w *World) Len() int { return len(w.chunks) }

// Positions returns resident chunk coordinates in ascending order.
func (w *World) Positions() []voxel.ChunkPos {
	keys := make([]voxel.ChunkPos, 0, len(w.chunks))
	for k := range w.chunks {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, voxel.Compare)
	return keys
}

// BuildTask returns a terrain job for pos. The job touches no world state and
// may run on any goroutine.
func (w *World) BuildTask(pos voxel.ChunkPos) func() *chunk.Chunk {
	height, bands := w.height, w.cfg.Bands
	return func() *chunk.Chunk { return chunk.Build(pos, height, bands) }
}

// Insert publishes a freshly built chunk. Recorded decoration edits for its
// coordinate are replayed and Clean neighbors sharing a populated face are
// invalidated. It reports false if pos is already resident.
func (w *World) Insert(c *chunk.Chunk) bool {
	pos := c.Pos()
	if _, ok := w.chunks[pos]; ok {
		return false
	}
	c.BeginDecoration()
	c.Observe(w.onTransition)
	w.chunks[pos] = c

	for _, e := range w.edits[pos] {
		w.apply(c, e)
	}
	if _, ok := w.decorated[pos]; ok {
		c.FinishDecoration()
	}

	for _, f := range voxel.Faces {
		if n, ok := w.chunks[pos.Neighbor(f)]; ok && faceOccupied(c, f) {
			n.Invalidate()
		}
	}
	return true
}

// Evict drops chunks when the resident count exceeds the configured budget.
// Only chunks outside the generated region around observer are candidates,
// farthest first. It returns the evicted coordinates.
func (w *World) Evict(observer voxel.ChunkPos) []voxel.ChunkPos {
	limit := w.cfg.MaxResident
	if limit <= 0 || len(w.chunks) <= limit {
		return nil
	}
	keep := w.cfg.RenderDistance + 1
	var far []voxel.ChunkPos
	for pos := range w.chunks {
		if pos.Chebyshev(observer) > keep {
			far = append(far, pos)
		}
	}
	slices.SortFunc(far, func(a, b voxel.ChunkPos) int {
		da, db := a.Chebyshev(observer), b.Chebyshev(observer)
		if da != db {
			return db - da
		}
		return voxel.Compare(a, b)
	})

	n := min(len(w.chunks)-limit, len(far))
	out := far[:n]
	for _, pos := range out {
		delete(w.chunks, pos)
		delete(w.inflight, pos)
		for _, f := range voxel.Faces {
			if nb, ok := w.chunks[pos.Neighbor(f)]; ok {
				nb.Invalidate()
			}
		}
	}
	return out
}

// GetVoxel reads the voxel at world coordinates.
func (w *World) GetVoxel(x, y, z int) (voxel.Voxel, error) {
	pos, lx, ly, lz := voxel.ChunkOf(x, y, z)
	c, ok := w.chunks[pos]
	if !ok {
		return voxel.Empty, fmt.Errorf("get %d,%d,%d in %v: %w", x, y, z, pos, ErrMissingChunk)
	}
	return c.At(lx, ly, lz), nil
}

// SetVoxel writes the voxel at world coordinates. Writes on a chunk face
// also invalidate the neighbor across that face. The write is recorded so a
// chunk rebuilt after eviction keeps it.
func (w *World) SetVoxel(x, y, z int, v voxel.Voxel) error {
	pos, lx, ly, lz := voxel.ChunkOf(x, y, z)
	c, ok := w.chunks[pos]
	if !ok {
		return fmt.Errorf("set %d,%d,%d in %v: %w", x, y, z, pos, ErrMissingChunk)
	}
	if err := w.setLocal(c, lx, ly, lz, v); err != nil {
		return err
	}
	w.record(pos, edit{x: lx, y: ly, z: lz, v: v, rule: replaceAny})
	return nil
}

func (w *World) setLocal(c *chunk.Chunk, x, y, z int, v voxel.Voxel) error {
	if err := c.Set(x, y, z, v); err != nil {
		return err
	}
	pos := c.Pos()
	for a, l := range [3]int{x, y, z} {
		var f voxel.Face
		switch l {
		case 0:
			f = [3]voxel.Face{voxel.Left, voxel.Bottom, voxel.Back}[a]
		case chunk.Size - 1:
			f = [3]voxel.Face{voxel.Right, voxel.Top, voxel.Front}[a]
		default:
			continue
		}
		if n, ok := w.chunks[pos.Neighbor(f)]; ok {
			n.Invalidate()
		}
	}
	return nil
}

// Cluster joins the chunk at pos with its resident face neighbors. The
// center must be resident; scheduling a mesh for a missing chunk is a bug.
func (w *World) Cluster(pos voxel.ChunkPos) *chunk.Cluster {
	c, ok := w.chunks[pos]
	if !ok {
		panic(fmt.Sprintf("world: cluster for missing chunk %v", pos))
	}
	var ns [6]*chunk.Grid
	for _, f := range voxel.Faces {
		if n, ok := w.chunks[pos.Neighbor(f)]; ok {
			ns[f] = n.Share()
		}
	}
	return chunk.NewCluster(pos, c.Share(), ns)
}

// NeedsMesh reports whether pos holds a decorated Dirty chunk whose current
// version is not already being meshed.
func (w *World) NeedsMesh(pos voxel.ChunkPos) bool {
	c, ok := w.chunks[pos]
	if !ok || c.Status() != chunk.Dirty || !c.Decorated() {
		return false
	}
	v, busy := w.inflight[pos]
	return !busy || v != c.Version()
}

// BeginMesh captures a mesh job for pos if it needs one.
func (w *World) BeginMesh(pos voxel.ChunkPos) (mesh.Job, bool) {
	if !w.NeedsMesh(pos) {
		return mesh.Job{}, false
	}
	c := w.chunks[pos]
	w.inflight[pos] = c.Version()
	return mesh.Job{Cluster: w.Cluster(pos), Version: c.Version()}, true
}

// MeshCurrent reports whether a mesh built from version still matches pos.
func (w *World) MeshCurrent(pos voxel.ChunkPos, version uint64) bool {
	c, ok := w.chunks[pos]
	return ok && c.Status() == chunk.Dirty && c.Version() == version
}

// AbandonMesh forgets an in-flight mesh that will not be committed.
func (w *World) AbandonMesh(pos voxel.ChunkPos, version uint64) {
	if v, ok := w.inflight[pos]; ok && v == version {
		delete(w.inflight, pos)
	}
}

// CommitMesh marks pos Clean after its mesh was uploaded. It fails when the
// chunk changed since the mesh was captured; the chunk then stays Dirty.
func (w *World) CommitMesh(pos voxel.ChunkPos, version uint64, h chunk.Handle, vertexCount int) bool {
	w.AbandonMesh(pos, version)
	c, ok := w.chunks[pos]
	if !ok {
		return false
	}
	return c.MarkClean(version, h, vertexCount)
}

// InFlight returns the number of chunks with a mesh job outstanding.
func (w *World) InFlight() int { return len(w.inflight) }

func faceOccupied(c *chunk.Chunk, f voxel.Face) bool {
	last := chunk.Size - 1
	for a := 0; a < chunk.Size; a++ {
		for b := 0; b < chunk.Size; b++ {
			var x, y, z int
			switch f {
			case voxel.Top:
				x, y, z = a, last, b
			case voxel.Bottom:
				x, y, z = a, 0, b
			case voxel.Right:
				x, y, z = last, a, b
			case voxel.Left:
				x, y, z = 0, a, b
			case voxel.Front:
				x, y, z = a, b, last
			case voxel.Back:
				x, y, z = a, b, 0
			}
			if c.At(x, y, z) != voxel.Empty {
				return true
			}
		}
	}
	return false
}
