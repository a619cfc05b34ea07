package main

import (
	"fmt"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/stream"
	"voxelstream.ai/internal/sim/voxel"
)

type chunkState struct {
	status chunk.Status
	queued map[uint64]bool
}

// checker validates a run's logs record by record.
type checker struct {
	maxUploads int

	lastFrame uint64
	chunks    map[voxel.ChunkPos]*chunkState
	sum       Summary
}

type Summary struct {
	Frames, Events, Chunks  int
	Uploads, Stale, Evicted int
	Violations              int
}

func newChecker(maxUploads int) *checker {
	return &checker{maxUploads: maxUploads, chunks: map[voxel.ChunkPos]*chunkState{}}
}

func (c *checker) violation(format string, args ...any) error {
	c.sum.Violations++
	return fmt.Errorf(format, args...)
}

func (c *checker) Frame(f stream.FrameLogEntry) error {
	c.sum.Frames++
	prev := c.lastFrame
	c.lastFrame = f.Frame
	if prev != 0 && f.Frame != prev+1 {
		return c.violation("frame %d follows %d", f.Frame, prev)
	}
	if c.maxUploads > 0 && f.Uploaded > c.maxUploads {
		return c.violation("frame %d uploaded %d meshes, budget %d", f.Frame, f.Uploaded, c.maxUploads)
	}
	return nil
}

func (c *checker) Event(e stream.Event) error {
	c.sum.Events++
	st := c.chunks[e.Pos]

	switch e.Kind {
	case stream.EventBuild:
		if st != nil {
			return c.violation("frame %d: %v built while resident", e.Frame, e.Pos)
		}
		to, ok := chunk.ParseStatus(e.To)
		if !ok {
			return c.violation("frame %d: %v built with status %q", e.Frame, e.Pos, e.To)
		}
		c.chunks[e.Pos] = &chunkState{status: to, queued: map[uint64]bool{}}
		c.sum.Chunks++

	case stream.EventStatus:
		from, ok1 := chunk.ParseStatus(e.From)
		to, ok2 := chunk.ParseStatus(e.To)
		if !ok1 || !ok2 || !chunk.CanTransition(from, to) {
			return c.violation("frame %d: %v illegal transition %s -> %s", e.Frame, e.Pos, e.From, e.To)
		}
		// Status changes during Insert precede the BUILD record.
		if st == nil {
			return nil
		}
		if st.status != from {
			return c.violation("frame %d: %v transition from %s but chunk was %s", e.Frame, e.Pos, from, st.status)
		}
		st.status = to

	case stream.EventQueue:
		if st == nil {
			return c.violation("frame %d: %v queued while not resident", e.Frame, e.Pos)
		}
		st.queued[e.Version] = true

	case stream.EventUpload:
		c.sum.Uploads++
		if st == nil {
			return c.violation("frame %d: %v uploaded while not resident", e.Frame, e.Pos)
		}
		if !st.queued[e.Version] {
			return c.violation("frame %d: %v uploaded version %d that was never queued", e.Frame, e.Pos, e.Version)
		}

	case stream.EventStale:
		c.sum.Stale++

	case stream.EventEvict:
		c.sum.Evicted++
		if st == nil {
			return c.violation("frame %d: %v evicted while not resident", e.Frame, e.Pos)
		}
		delete(c.chunks, e.Pos)
	}
	return nil
}

func (c *checker) Summary() Summary { return c.sum }
