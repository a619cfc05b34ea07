package world

import "voxelstream.ai/internal/sim/chunk"

// Stats counts resident chunks by status.
type Stats struct {
	Resident int `json:"resident"`
	Empty    int `json:"empty"`
	Terrain  int `json:"terrain"`
	Dirty    int `json:"dirty"`
	Clean    int `json:"clean"`
	InFlight int `json:"in_flight"`
	Edits    int `json:"edits"`
	Vertices int `json:"vertices"`
}

func (w *World) Stats() Stats {
	s := Stats{Resident: len(w.chunks), InFlight: len(w.inflight), Edits: w.RecordedEdits()}
	for _, c := range w.chunks {
		switch c.Status() {
		case chunk.Empty:
			s.Empty++
		case chunk.Terrain:
			s.Terrain++
		case chunk.Dirty:
			s.Dirty++
		case chunk.Clean:
			s.Clean++
		}
		s.Vertices += c.VertexCount()
	}
	return s
}
