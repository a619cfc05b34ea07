package chunk

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream.ai/internal/sim/voxel"
)

// Handle identifies GPU-resident vertex data. Zero means none.
type Handle uint64

// TransitionFunc observes status changes of a resident chunk.
type TransitionFunc func(pos voxel.ChunkPos, from, to Status)

// Chunk owns one voxel grid and its mesh bookkeeping. A chunk is owned by a
// single goroutine; readers on other goroutines only ever see grids obtained
// through Share, which are never written afterwards.
type Chunk struct {
	pos    voxel.ChunkPos
	grid   *Grid
	shared bool

	status    Status
	version   uint64
	decorated bool

	vertexCount int
	handle      Handle

	observe TransitionFunc
}

func New(pos voxel.ChunkPos) *Chunk {
	return &Chunk{pos: pos, grid: new(Grid)}
}

// FromGrid wraps an existing grid; status is Empty or Dirty by content.
func FromGrid(pos voxel.ChunkPos, g *Grid) *Chunk {
	c := &Chunk{pos: pos, grid: g}
	if !g.IsEmpty() {
		c.status = Dirty
	}
	return c
}

func (c *Chunk) Pos() voxel.ChunkPos { return c.pos }
func (c *Chunk) Status() Status      { return c.status }
func (c *Chunk) Version() uint64     { return c.version }
func (c *Chunk) VertexCount() int    { return c.vertexCount }
func (c *Chunk) Handle() Handle      { return c.handle }
func (c *Chunk) Decorated() bool     { return c.decorated }

// Ready reports whether the chunk has uploaded geometry to draw.
func (c *Chunk) Ready() bool { return c.handle != 0 && c.vertexCount > 0 }

// Center returns the world-space center point of the chunk.
func (c *Chunk) Center() mgl32.Vec3 {
	x, y, z := c.pos.Origin()
	h := float32(Size) / 2
	return mgl32.Vec3{float32(x) + h, float32(y) + h, float32(z) + h}
}

func (c *Chunk) Observe(fn TransitionFunc) { c.observe = fn }

func (c *Chunk) At(x, y, z int) voxel.Voxel { return c.grid.At(x, y, z) }

func (c *Chunk) Get(x, y, z int) (voxel.Voxel, error) { return c.grid.Get(x, y, z) }

// Set writes one voxel and marks the chunk Dirty.
func (c *Chunk) Set(x, y, z int, v voxel.Voxel) error {
	if !InBounds(x, y, z) {
		return fmt.Errorf("set %d,%d,%d in chunk %v: %w", x, y, z, c.pos, ErrOutOfBounds)
	}
	if c.shared {
		g := *c.grid
		c.grid = &g
		c.shared = false
	}
	c.grid[Index(x, y, z)] = v
	c.version++
	c.setStatus(Dirty)
	return nil
}

// Share returns the current grid for read-only use by another goroutine.
// The next Set copies the grid instead of writing through.
func (c *Chunk) Share() *Grid {
	c.shared = true
	return c.grid
}

// BeginDecoration parks a freshly built, unpublished chunk in Terrain.
func (c *Chunk) BeginDecoration() {
	if c.status == Dirty {
		c.status = Terrain
		return
	}
	c.decorated = true
}

// FinishDecoration records that decoration ran; a Terrain chunk becomes Dirty.
func (c *Chunk) FinishDecoration() {
	c.decorated = true
	if c.status == Terrain {
		c.setStatus(Dirty)
	}
}

// Invalidate forces a meshed or meshing chunk back to Dirty, used when a
// neighbor's boundary changed. Any mesh captured before the call is stale.
func (c *Chunk) Invalidate() {
	if c.status == Clean || c.status == Dirty {
		c.version++
		c.setStatus(Dirty)
	}
}

// MarkClean records an uploaded mesh built from the given version. It fails
// when the chunk changed after the mesh was captured.
func (c *Chunk) MarkClean(version uint64, h Handle, vertexCount int) bool {
	if c.status != Dirty || version != c.version {
		return false
	}
	c.handle = h
	c.vertexCount = vertexCount
	c.setStatus(Clean)
	return true
}

func (c *Chunk) setStatus(to Status) {
	from := c.status
	if from == to {
		return
	}
	if !CanTransition(from, to) {
		panic(fmt.Sprintf("chunk %v: illegal status transition %v -> %v", c.pos, from, to))
	}
	c.status = to
	if c.observe != nil {
		c.observe(c.pos, from, to)
	}
}
