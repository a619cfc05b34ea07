package chunk

import (
	"errors"
	"testing"

	"voxelstream.ai/internal/sim/voxel"
)

func TestGridIndexBijection(t *testing.T) {
	seen := make([]bool, Volume)
	for y := 0; y < Size; y++ {
		for z := 0; z < Size; z++ {
			for x := 0; x < Size; x++ {
				i := Index(x, y, z)
				if seen[i] {
					t.Fatalf("index %d reused at %d,%d,%d", i, x, y, z)
				}
				seen[i] = true
				if gx, gy, gz := Coords(i); gx != x || gy != y || gz != z {
					t.Fatalf("Coords(%d)=%d,%d,%d want %d,%d,%d", i, gx, gy, gz, x, y, z)
				}
			}
		}
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	c := New(voxel.ChunkPos{})
	for y := 0; y < Size; y += 3 {
		for z := 0; z < Size; z += 5 {
			for x := 0; x < Size; x += 7 {
				v := voxel.Kinds[(x+y+z)%len(voxel.Kinds)]
				if err := c.Set(x, y, z, v); err != nil {
					t.Fatalf("set: %v", err)
				}
				got, err := c.Get(x, y, z)
				if err != nil || got != v {
					t.Fatalf("get %d,%d,%d = %v,%v want %v", x, y, z, got, err, v)
				}
			}
		}
	}
}

func TestOutOfBounds(t *testing.T) {
	c := New(voxel.ChunkPos{})
	if err := c.Set(Size, 0, 0, voxel.Stone); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := c.Get(0, -1, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if c.Status() != Empty || c.Version() != 0 {
		t.Fatalf("failed set must not touch state: %v v%d", c.Status(), c.Version())
	}
}

func TestStatusTransitions(t *testing.T) {
	var seen [][2]Status
	c := New(voxel.ChunkPos{})
	c.Observe(func(_ voxel.ChunkPos, from, to Status) { seen = append(seen, [2]Status{from, to}) })

	_ = c.Set(1, 1, 1, voxel.Stone)
	v := c.Version()
	if !c.MarkClean(v, 7, 36) {
		t.Fatalf("MarkClean should succeed at current version")
	}
	_ = c.Set(1, 2, 1, voxel.Stone)
	if c.MarkClean(v, 8, 36) {
		t.Fatalf("MarkClean must reject a stale version")
	}
	if c.Status() != Dirty {
		t.Fatalf("stale commit left status %v", c.Status())
	}
	if !c.MarkClean(c.Version(), 8, 60) {
		t.Fatalf("MarkClean at new version failed")
	}

	want := [][2]Status{{Empty, Dirty}, {Dirty, Clean}, {Clean, Dirty}, {Dirty, Clean}}
	if len(seen) != len(want) {
		t.Fatalf("transitions=%v want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] || !CanTransition(seen[i][0], seen[i][1]) {
			t.Fatalf("transition %d = %v want %v", i, seen[i], want[i])
		}
	}
}

func TestInvalidateBumpsVersion(t *testing.T) {
	c := New(voxel.ChunkPos{})
	_ = c.Set(0, 0, 0, voxel.Dirt)
	v := c.Version()
	c.Invalidate()
	if c.MarkClean(v, 1, 6) {
		t.Fatalf("mesh captured before Invalidate must not commit")
	}
}

func TestShareCopiesOnWrite(t *testing.T) {
	c := New(voxel.ChunkPos{})
	_ = c.Set(0, 0, 0, voxel.Stone)
	g := c.Share()
	_ = c.Set(0, 0, 0, voxel.Sand)
	if g.At(0, 0, 0) != voxel.Stone {
		t.Fatalf("shared grid was written through")
	}
	if c.At(0, 0, 0) != voxel.Sand {
		t.Fatalf("chunk lost its write")
	}
}

func TestDecorationLifecycle(t *testing.T) {
	g := new(Grid)
	g[Index(0, 0, 0)] = voxel.Grass
	c := FromGrid(voxel.ChunkPos{}, g)
	if c.Status() != Dirty {
		t.Fatalf("built chunk status=%v want dirty", c.Status())
	}
	c.BeginDecoration()
	if c.Status() != Terrain || c.Decorated() {
		t.Fatalf("unpublished chunk should wait in terrain")
	}
	c.FinishDecoration()
	if c.Status() != Dirty || !c.Decorated() {
		t.Fatalf("decorated chunk status=%v", c.Status())
	}

	e := New(voxel.ChunkPos{X: 1})
	e.BeginDecoration()
	if e.Status() != Empty || !e.Decorated() {
		t.Fatalf("empty chunk needs no decoration")
	}
}

func TestIllegalTransitionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	c := New(voxel.ChunkPos{})
	c.setStatus(Clean)
}
