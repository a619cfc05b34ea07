package stream

import (
	"voxelstream.ai/internal/sim/world"
	"voxelstream.ai/internal/sim/voxel"
)

type EventKind string

const (
	EventBuild    EventKind = "BUILD"
	EventDecorate EventKind = "DECORATE"
	EventQueue    EventKind = "QUEUE"
	EventUpload   EventKind = "UPLOAD"
	EventStale    EventKind = "STALE"
	EventEvict    EventKind = "EVICT"
	EventStatus   EventKind = "STATUS"
)

// Event is one chunk lifecycle record.
type Event struct {
	Frame    uint64         `json:"frame"`
	Kind     EventKind      `json:"kind"`
	Pos      voxel.ChunkPos `json:"pos"`
	From     string         `json:"from,omitempty"`
	To       string         `json:"to,omitempty"`
	Version  uint64         `json:"version,omitempty"`
	Vertices int            `json:"vertices,omitempty"`
	Entities int            `json:"entities,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// FrameLogEntry summarizes one frame.
type FrameLogEntry struct {
	Frame      uint64         `json:"frame"`
	Observer   voxel.ChunkPos `json:"observer"`
	Built      int            `json:"built"`
	Decorated  int            `json:"decorated"`
	Queued     int            `json:"queued"`
	Uploaded   int            `json:"uploaded"`
	Stale      int            `json:"stale"`
	Evicted    int            `json:"evicted"`
	DurationMS float64        `json:"duration_ms"`
	World      world.Stats    `json:"world"`
}

type FrameSink interface {
	WriteFrame(FrameLogEntry) error
}

type EventSink interface {
	WriteEvent(Event) error
}
