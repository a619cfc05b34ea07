package voxel

import "fmt"

const (
	ChunkSize   = 32
	ChunkArea   = ChunkSize * ChunkSize
	ChunkVolume = ChunkArea * ChunkSize
)

// ChunkPos addresses a chunk in chunk units.
type ChunkPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p ChunkPos) String() string { return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z) }

func (p ChunkPos) Add(dx, dy, dz int) ChunkPos {
	return ChunkPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Neighbor returns the face-adjacent chunk in direction f.
func (p ChunkPos) Neighbor(f Face) ChunkPos {
	dx, dy, dz := f.Offset()
	return p.Add(dx, dy, dz)
}

// Origin returns the world coordinates of the chunk's minimum corner.
func (p ChunkPos) Origin() (x, y, z int) {
	return p.X * ChunkSize, p.Y * ChunkSize, p.Z * ChunkSize
}

// Chebyshev returns the max per-axis distance between p and q.
func (p ChunkPos) Chebyshev(q ChunkPos) int {
	return max(abs(p.X-q.X), abs(p.Y-q.Y), abs(p.Z-q.Z))
}

// Less orders positions by x, then y, then z.
func (p ChunkPos) Less(q ChunkPos) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.Z < q.Z
}

func Compare(a, b ChunkPos) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// ChunkOf returns the chunk containing world coordinate (x,y,z) and the
// local coordinates inside it.
func ChunkOf(x, y, z int) (ChunkPos, int, int, int) {
	return ChunkPos{X: FloorDiv(x, ChunkSize), Y: FloorDiv(y, ChunkSize), Z: FloorDiv(z, ChunkSize)},
		Mod(x, ChunkSize), Mod(y, ChunkSize), Mod(z, ChunkSize)
}

func FloorDiv(a, b int) int {
	q := a / b
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod is the Euclidean remainder, always in [0,b) for b > 0.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
