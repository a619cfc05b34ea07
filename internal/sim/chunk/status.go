package chunk

import "fmt"

// Status is the mesh-staleness state of a chunk.
type Status uint8

const (
	// Empty chunks hold no voxels and have nothing to mesh.
	Empty Status = iota
	// Terrain chunks have generated voxels awaiting decoration.
	Terrain
	// Dirty chunks changed since their last mesh build.
	Dirty
	// Clean chunks have a mesh matching their voxels.
	Clean
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Terrain:
		return "terrain"
	case Dirty:
		return "dirty"
	case Clean:
		return "clean"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// CanTransition reports whether a resident chunk may move from one status to
// another. Terrain is entered only before a chunk is published to the world.
func CanTransition(from, to Status) bool {
	switch to {
	case Dirty:
		return from == Empty || from == Terrain || from == Clean
	case Clean:
		return from == Dirty
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	for st := Empty; st <= Clean; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

func (s *Status) UnmarshalText(b []byte) error {
	st, ok := ParseStatus(string(b))
	if !ok {
		return fmt.Errorf("unknown chunk status %q", b)
	}
	*s = st
	return nil
}
