package voxel

// Face is one of the six axis-aligned directions of a cube.
type Face uint8

const (
	Top    Face = iota // +Y
	Bottom             // -Y
	Right              // +X
	Left               // -X
	Front              // +Z
	Back               // -Z
)

var Faces = [6]Face{Top, Bottom, Right, Left, Front, Back}

var faceNames = [6]string{"top", "bottom", "right", "left", "front", "back"}

func (f Face) String() string {
	if int(f) < len(faceNames) {
		return faceNames[f]
	}
	return "face?"
}

// Offset returns the outward unit normal of f.
func (f Face) Offset() (dx, dy, dz int) {
	switch f {
	case Top:
		return 0, 1, 0
	case Bottom:
		return 0, -1, 0
	case Right:
		return 1, 0, 0
	case Left:
		return -1, 0, 0
	case Front:
		return 0, 0, 1
	case Back:
		return 0, 0, -1
	}
	return 0, 0, 0
}

// Positive reports whether f points along a positive axis.
func (f Face) Positive() bool { return f == Top || f == Right || f == Front }

// Opposite returns the face pointing the other way.
func (f Face) Opposite() Face { return f ^ 1 }
