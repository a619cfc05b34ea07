package voxel

import "fmt"

// Voxel is a single cell kind. The zero value is Empty.
// Ids must fit in the 4-bit field of a packed vertex.
type Voxel uint8

const (
	Empty Voxel = iota
	Sand
	Dirt
	Grass
	Stone
	Cobblestone
	Snow
	Water
	Wood
	Leaf

	numKinds
)

// Kinds lists every non-empty voxel kind in id order.
var Kinds = [...]Voxel{Sand, Dirt, Grass, Stone, Cobblestone, Snow, Water, Wood, Leaf}

var names = [...]string{
	Empty:       "empty",
	Sand:        "sand",
	Dirt:        "dirt",
	Grass:       "grass",
	Stone:       "stone",
	Cobblestone: "cobblestone",
	Snow:        "snow",
	Water:       "water",
	Wood:        "wood",
	Leaf:        "leaf",
}

func (v Voxel) String() string {
	if v < numKinds {
		return names[v]
	}
	return fmt.Sprintf("voxel(%d)", uint8(v))
}

func (v Voxel) Valid() bool { return v < numKinds }

// Opaque reports whether v takes part in the opaque mesh pass.
func (v Voxel) Opaque() bool { return v != Empty && v != Water }

// Solid reports whether v counts as occupied for height purposes.
func (v Voxel) Solid() bool { return v != Empty }

func IsWater(v Voxel) bool { return v == Water }

// Is returns a predicate matching exactly k.
func Is(k Voxel) func(Voxel) bool {
	return func(v Voxel) bool { return v == k }
}
