package worldgen

import (
	"testing"
)

func TestNoise2DDeterministic(t *testing.T) {
	a, b := NewNoise(12345), NewNoise(12345)
	for i := 0; i < 100; i++ {
		x, y := float64(i)*0.1, float64(i)*0.2
		if a.Noise2D(x, y) != b.Noise2D(x, y) {
			t.Fatalf("Noise2D not deterministic at (%f, %f)", x, y)
		}
	}
}

func TestNoise2DRange(t *testing.T) {
	n := NewNoise(42)
	for i := 0; i < 10000; i++ {
		x := float64(i)*0.37 - 500
		y := float64(i)*0.53 - 500
		if v := n.Noise2D(x, y); v < -1 || v > 1 {
			t.Fatalf("Noise2D(%f, %f) = %f, out of [-1,1]", x, y, v)
		}
	}
}

func TestTerrainHeightBounded(t *testing.T) {
	tr := NewTerrain(7, 16, nil)
	for i := 0; i < 2000; i++ {
		x, z := float64(i*13-9000), float64(i*7-4000)
		h := tr.Height(x, z)
		if h < 16-128 || h > 16+128 {
			t.Fatalf("height %d at (%v,%v) outside octave sum bounds", h, x, z)
		}
		if h != tr.Height(x, z) {
			t.Fatalf("height not deterministic")
		}
	}
}

func TestHashIsPermutation(t *testing.T) {
	if len(Hash) != 256 {
		t.Fatalf("hash len=%d", len(Hash))
	}
	var seen [256]bool
	for _, v := range Hash {
		if seen[v] {
			t.Fatalf("duplicate %d", v)
		}
		seen[v] = true
	}
}

func TestTerrainHeightIsTruncatedLayerSum(t *testing.T) {
	octaves := []Octave{{Scale: 100.1, Amplitude: 32, Sign: 1}, {Scale: 200.1, Amplitude: 32, Sign: -1}}
	tr := NewTerrain(3, 16, octaves)
	n := NewNoise(3)
	for i := 0; i < 500; i++ {
		x, z := float64(i*37-9000), float64(i*11-2000)
		want := 16 + int(32*n.Noise2D(x/100.1, z/100.1)) - int(32*n.Noise2D(x/200.1, z/200.1))
		if got := tr.Height(x, z); got != want {
			t.Fatalf("height(%v,%v)=%d want %d", x, z, got, want)
		}
	}
	if h := tr.Height(0, 0); h != 16 {
		t.Fatalf("lattice origin height=%d want base 16", h)
	}
}
