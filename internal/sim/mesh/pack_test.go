package mesh

import (
	"testing"

	"voxelstream.ai/internal/sim/voxel"
)

func TestPackLayout(t *testing.T) {
	w := Pack(1, 2, 3, voxel.Back, voxel.Leaf)
	want := uint32(5)<<22 | 1<<16 | 2<<10 | 3<<4 | uint32(voxel.Leaf)
	if w != want {
		t.Fatalf("Pack=%#x want %#x", w, want)
	}
}

func TestPackUnpackInverse(t *testing.T) {
	for _, f := range voxel.Faces {
		for _, k := range voxel.Kinds {
			for c := uint32(0); c <= 32; c += 4 {
				x, y, z := c, 32-c, (c*7)%33
				got := Unpack(Pack(x, y, z, f, k))
				if got != (Vertex{X: x, Y: y, Z: z, Face: f, Voxel: k}) {
					t.Fatalf("round trip %d,%d,%d %v %v -> %+v", x, y, z, f, k, got)
				}
			}
		}
	}
}
