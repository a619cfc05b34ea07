package stream

import (
	"voxelstream.ai/internal/sim/voxel"
	"voxelstream.ai/internal/sim/world"
)

// Metrics is a read-only view of scheduler state. It is replaced after every
// frame and may be read from any goroutine.
type Metrics struct {
	Frame       uint64         `json:"frame"`
	Observer    voxel.ChunkPos `json:"observer"`
	World       world.Stats    `json:"world"`
	MeshPending int            `json:"mesh_pending"`
	MeshRunning int            `json:"mesh_running"`
	FrameMS     float64        `json:"frame_ms"`

	UploadsTotal uint64 `json:"uploads_total"`
	StaleTotal   uint64 `json:"stale_total"`
	EvictTotal   uint64 `json:"evict_total"`
	ErrorsTotal  uint64 `json:"errors_total"`
}

func (s *Streamer) Metrics() Metrics { return *s.metrics.Load() }

func (s *Streamer) publish(e FrameLogEntry) {
	s.metrics.Store(&Metrics{
		Frame:        e.Frame,
		Observer:     e.Observer,
		World:        e.World,
		MeshPending:  s.mesher.Pending(),
		MeshRunning:  s.mesher.Running(),
		FrameMS:      e.DurationMS,
		UploadsTotal: s.uploadsTotal,
		StaleTotal:   s.staleTotal,
		EvictTotal:   s.evictTotal,
		ErrorsTotal:  s.errorsTotal,
	})
}
