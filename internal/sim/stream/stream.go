// Package stream schedules chunk generation, decoration, meshing and upload
// around a moving observer.
package stream

import (
	"context"
	"log"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/mesh"
	"voxelstream.ai/internal/sim/voxel"
	"voxelstream.ai/internal/sim/world"
)

type Config struct {
	FrameRateHz        int
	MaxUploadsPerFrame int
	BuildWorkers       int
}

// Uploader receives finished meshes on the render thread.
type Uploader interface {
	Upload(m *mesh.Mesh) (chunk.Handle, error)
	Evict(pos voxel.ChunkPos)
}

// RenderThread runs fn on the thread owning the graphics context and waits
// for it to return.
type RenderThread func(fn func())

func direct(fn func()) { fn() }

type Options struct {
	Logger       *log.Logger
	RenderThread RenderThread
	Frames       FrameSink
	Events       EventSink
	// OnFrame runs at the end of every Update, on the caller goroutine.
	OnFrame func(FrameLogEntry)
}

// Streamer owns the world and drives it one frame at a time. Update and Run
// must be called from a single goroutine.
type Streamer struct {
	cfg    Config
	world  *world.World
	mesher *mesh.Worker
	scene  Uploader
	pool   pond.Pool

	logger  *log.Logger
	render  RenderThread
	frames  FrameSink
	events  EventSink
	onFrame func(FrameLogEntry)

	frame   uint64
	metrics atomic.Pointer[Metrics]

	uploadsTotal uint64
	staleTotal   uint64
	evictTotal   uint64
	errorsTotal  uint64
}

func New(cfg Config, w *world.World, mesher *mesh.Worker, scene Uploader, opts Options) *Streamer {
	if cfg.MaxUploadsPerFrame <= 0 {
		cfg.MaxUploadsPerFrame = 2
	}
	if cfg.FrameRateHz <= 0 {
		cfg.FrameRateHz = 30
	}
	s := &Streamer{
		cfg:    cfg,
		world:  w,
		mesher: mesher,
		scene:  scene,
		pool:   newPool(cfg.BuildWorkers),
		logger: opts.Logger,
		render: opts.RenderThread,
		frames: opts.Frames,
		events: opts.Events,
	}
	s.onFrame = opts.OnFrame
	if s.render == nil {
		s.render = direct
	}
	if s.logger == nil {
		s.logger = log.New(log.Writer(), "[stream] ", log.LstdFlags|log.Lmicroseconds)
	}
	w.OnTransition(func(pos voxel.ChunkPos, from, to chunk.Status) {
		s.emit(Event{Kind: EventStatus, Pos: pos, From: from.String(), To: to.String()})
	})
	s.metrics.Store(&Metrics{})
	return s
}

func newPool(workers int) pond.Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return pond.NewPool(workers)
}

// Close stops the build pool. The mesh worker is stopped through its context.
func (s *Streamer) Close() { s.pool.StopAndWait() }

func (s *Streamer) World() *world.World { return s.world }

// Run steps one frame per tick until ctx is done. observer is sampled once
// per frame.
func (s *Streamer) Run(ctx context.Context, observer func() mgl32.Vec3) {
	interval := time.Second / time.Duration(s.cfg.FrameRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Update(ObserverChunk(observer()))
		}
	}
}

// ObserverChunk returns the chunk containing world position p.
func ObserverChunk(p mgl32.Vec3) voxel.ChunkPos {
	pos, _, _, _ := voxel.ChunkOf(floor(p.X()), floor(p.Y()), floor(p.Z()))
	return pos
}

func floor(f float32) int {
	i := int(f)
	if f < float32(i) {
		i--
	}
	return i
}

// Update runs one frame: upload a bounded number of finished meshes, then
// promote, build, decorate and queue remeshes around observer.
func (s *Streamer) Update(observer voxel.ChunkPos) FrameLogEntry {
	start := time.Now()
	s.frame++
	entry := FrameLogEntry{Frame: s.frame, Observer: observer}

	entry.Uploaded, entry.Stale = s.drain()

	plan := s.world.Promote(observer)
	entry.Built = s.build(plan.Build)
	touched := s.decorate(plan.Decorate)
	entry.Decorated = len(plan.Decorate)
	entry.Queued = s.queue(mergeSorted(plan.Remesh, touched))
	entry.Evicted = s.evict(observer)

	entry.DurationMS = float64(time.Since(start).Microseconds()) / 1000
	entry.World = s.world.Stats()
	s.publish(entry)
	if s.frames != nil {
		if err := s.frames.WriteFrame(entry); err != nil {
			s.logger.Printf("frame log: %v", err)
		}
	}
	if s.onFrame != nil {
		s.onFrame(entry)
	}
	return entry
}

// drain uploads at most MaxUploadsPerFrame current meshes. Stale results are
// dropped without counting against the budget.
func (s *Streamer) drain() (uploaded, stale int) {
	for uploaded < s.cfg.MaxUploadsPerFrame {
		var m mesh.Mesh
		select {
		case m = <-s.mesher.Results():
		default:
			return uploaded, stale
		}
		if !s.world.MeshCurrent(m.Pos, m.Version) {
			s.world.AbandonMesh(m.Pos, m.Version)
			stale++
			s.staleTotal++
			s.emit(Event{Kind: EventStale, Pos: m.Pos, Version: m.Version})
			continue
		}

		var (
			h   chunk.Handle
			err error
		)
		s.render(func() { h, err = s.scene.Upload(&m) })
		if err != nil {
			s.world.AbandonMesh(m.Pos, m.Version)
			s.errorsTotal++
			s.logger.Printf("upload %v: %v", m.Pos, err)
			s.emit(Event{Kind: EventStale, Pos: m.Pos, Version: m.Version, Reason: err.Error()})
			continue
		}
		s.world.CommitMesh(m.Pos, m.Version, h, len(m.Vertices))
		uploaded++
		s.uploadsTotal++
		s.emit(Event{Kind: EventUpload, Pos: m.Pos, Version: m.Version, Vertices: len(m.Vertices)})
	}
	return uploaded, stale
}

func (s *Streamer) build(positions []voxel.ChunkPos) int {
	if len(positions) == 0 {
		return 0
	}
	built := make([]*chunk.Chunk, len(positions))
	group := s.pool.NewGroup()
	for i, pos := range positions {
		i := i
		task := s.world.BuildTask(pos)
		group.Submit(func() { built[i] = task() })
	}
	if err := group.Wait(); err != nil {
		s.logger.Printf("build: %v", err)
	}
	n := 0
	for _, c := range built {
		if c == nil || !s.world.Insert(c) {
			continue
		}
		n++
		s.emit(Event{Kind: EventBuild, Pos: c.Pos(), To: c.Status().String()})
	}
	return n
}

func (s *Streamer) decorate(positions []voxel.ChunkPos) []voxel.ChunkPos {
	if len(positions) == 0 {
		return nil
	}
	ents := make([][]chunk.Entity, len(positions))
	group := s.pool.NewGroup()
	for i, pos := range positions {
		i := i
		task := s.world.EntityTask(pos)
		group.Submit(func() { ents[i] = task() })
	}
	if err := group.Wait(); err != nil {
		s.logger.Printf("entity scan: %v", err)
	}
	for i, pos := range positions {
		s.emit(Event{Kind: EventDecorate, Pos: pos, Entities: len(ents[i])})
	}
	return s.world.Decorate(positions, ents)
}

func (s *Streamer) queue(positions []voxel.ChunkPos) int {
	n := 0
	for _, pos := range positions {
		job, ok := s.world.BeginMesh(pos)
		if !ok {
			continue
		}
		s.mesher.Submit(job)
		n++
		s.emit(Event{Kind: EventQueue, Pos: pos, Version: job.Version})
	}
	return n
}

func (s *Streamer) evict(observer voxel.ChunkPos) int {
	evicted := s.world.Evict(observer)
	if len(evicted) == 0 {
		return 0
	}
	s.render(func() {
		for _, pos := range evicted {
			s.scene.Evict(pos)
		}
	})
	for _, pos := range evicted {
		s.evictTotal++
		s.emit(Event{Kind: EventEvict, Pos: pos})
	}
	return len(evicted)
}

func (s *Streamer) emit(e Event) {
	if s.events == nil {
		return
	}
	e.Frame = s.frame
	if err := s.events.WriteEvent(e); err != nil {
		s.logger.Printf("event log: %v", err)
	}
}

// mergeSorted unions two ascending coordinate lists.
func mergeSorted(a, b []voxel.ChunkPos) []voxel.ChunkPos {
	out := make([]voxel.ChunkPos, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.SortFunc(out, voxel.Compare)
	return slices.Compact(out)
}
