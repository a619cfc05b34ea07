package chunk

import (
	"reflect"
	"testing"

	"voxelstream.ai/internal/sim/voxel"
)

func flat(h int) HeightFunc { return func(float64, float64) int { return h } }

func TestBuildFlatGrassland(t *testing.T) {
	c := Build(voxel.ChunkPos{}, flat(20), DefaultBands())
	if c.Status() != Dirty {
		t.Fatalf("status=%v want dirty", c.Status())
	}
	col := func(y int) voxel.Voxel { return c.At(4, y, 9) }
	if col(19) != voxel.Grass {
		t.Fatalf("top=%v want grass", col(19))
	}
	if col(18) != voxel.Dirt || col(16) != voxel.Dirt {
		t.Fatalf("soil layer wrong: %v %v", col(18), col(16))
	}
	if col(10) != voxel.Stone || col(3) != voxel.Sand {
		t.Fatalf("bands wrong: %v %v", col(10), col(3))
	}
	if col(20) != voxel.Empty {
		t.Fatalf("above height=%v", col(20))
	}
}

func TestBuildAboveTerrainIsEmpty(t *testing.T) {
	c := Build(voxel.ChunkPos{Y: 2}, flat(20), DefaultBands())
	if c.Status() != Empty {
		t.Fatalf("status=%v want empty", c.Status())
	}
}

func TestBuildLowlandGetsWater(t *testing.T) {
	c := Build(voxel.ChunkPos{}, flat(2), DefaultBands())
	if c.At(0, 1, 0) != voxel.Sand {
		t.Fatalf("y1=%v want sand", c.At(0, 1, 0))
	}
	for y := 2; y <= 4; y++ {
		if c.At(0, y, 0) != voxel.Water {
			t.Fatalf("y%d=%v want water", y, c.At(0, y, 0))
		}
	}
	if c.At(0, 5, 0) != voxel.Empty {
		t.Fatalf("water column too tall")
	}
}

func TestBuildHeightClampedToOne(t *testing.T) {
	c := Build(voxel.ChunkPos{}, flat(-10), DefaultBands())
	if c.At(0, 0, 0) != voxel.Sand {
		t.Fatalf("clamped column missing floor voxel")
	}
}

func TestGenerateEntitiesDeterministic(t *testing.T) {
	hash := HashTable{0, 5, 9, 2, 0, 7, 3}
	c := Build(voxel.ChunkPos{X: -1, Z: 2}, flat(15), DefaultBands())
	a := GenerateEntities(c.Pos(), c.Share(), hash)
	b := GenerateEntities(c.Pos(), c.Share(), hash)
	if len(a) == 0 {
		t.Fatalf("expected some seeds on a grass plain")
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("entity scan not deterministic")
	}
	for _, e := range a {
		if e.Kind != Seed || e.Y != 14 || hash.At(e.X*3+e.Z*17) >= 1 {
			t.Fatalf("unexpected entity %+v", e)
		}
	}
}
