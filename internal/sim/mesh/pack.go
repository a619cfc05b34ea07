package mesh

import "voxelstream.ai/internal/sim/voxel"

// Packed vertex layout, least significant bits first:
// voxel id (4) | z (6) | y (6) | x (6) | face (3).
// Shaders decode these fields; do not change widths or order alone.
const (
	voxelBits = 4
	coordBits = 6
	faceBits  = 3

	zShift    = voxelBits
	yShift    = zShift + coordBits
	xShift    = yShift + coordBits
	faceShift = xShift + coordBits

	voxelMask = 1<<voxelBits - 1
	coordMask = 1<<coordBits - 1
	faceMask  = 1<<faceBits - 1
)

// Vertex is an unpacked mesh corner in chunk-local coordinates [0, 32].
type Vertex struct {
	X, Y, Z uint32
	Face    voxel.Face
	Voxel   voxel.Voxel
}

func Pack(x, y, z uint32, f voxel.Face, v voxel.Voxel) uint32 {
	return uint32(f)<<faceShift | x<<xShift | y<<yShift | z<<zShift | uint32(v)
}

func Unpack(w uint32) Vertex {
	return Vertex{
		X:     w >> xShift & coordMask,
		Y:     w >> yShift & coordMask,
		Z:     w >> zShift & coordMask,
		Face:  voxel.Face(w >> faceShift & faceMask),
		Voxel: voxel.Voxel(w & voxelMask),
	}
}

// FieldLayout gives the bit offset and width of each packed vertex field.
type FieldLayout struct {
	Voxel, Z, Y, X, Face [2]int
}

func Layout() FieldLayout {
	return FieldLayout{
		Voxel: [2]int{0, voxelBits},
		Z:     [2]int{zShift, coordBits},
		Y:     [2]int{yShift, coordBits},
		X:     [2]int{xShift, coordBits},
		Face:  [2]int{faceShift, faceBits},
	}
}
