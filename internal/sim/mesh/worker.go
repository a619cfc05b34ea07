package mesh

import (
	"context"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/gammazero/deque"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/voxel"
)

// Job asks for a mesh of the cluster's center chunk at a given version.
type Job struct {
	Cluster *chunk.Cluster
	Version uint64
}

// Worker is a long-lived mesh builder. Jobs wait in a FIFO queue where a
// newer job for the same chunk replaces the waiting one; at most `workers`
// builds run at once and finished meshes are delivered on Results.
type Worker struct {
	build BuildFunc
	pool  pond.Pool
	slots chan struct{}

	mu      sync.Mutex
	queue   deque.Deque[voxel.ChunkPos]
	pending map[voxel.ChunkPos]Job
	wake    chan struct{}

	results chan Mesh
}

func NewWorker(build BuildFunc, workers, backlog int) *Worker {
	if workers <= 0 {
		workers = 1
	}
	if backlog < 0 {
		backlog = 0
	}
	return &Worker{
		build:   build,
		pool:    pond.NewPool(workers),
		slots:   make(chan struct{}, workers),
		pending: make(map[voxel.ChunkPos]Job),
		wake:    make(chan struct{}, 1),
		results: make(chan Mesh, backlog),
	}
}

// Submit queues j. It never blocks.
func (w *Worker) Submit(j Job) {
	pos := j.Cluster.Pos
	w.mu.Lock()
	if _, ok := w.pending[pos]; !ok {
		w.queue.PushBack(pos)
	}
	w.pending[pos] = j
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) Results() <-chan Mesh { return w.results }

// Pending returns the number of jobs waiting to start.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.Len()
}

// Running returns the number of builds in progress.
func (w *Worker) Running() int { return len(w.slots) }

func (w *Worker) next() (Job, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.queue.Len() == 0 {
		return Job{}, false
	}
	pos := w.queue.PopFront()
	j := w.pending[pos]
	delete(w.pending, pos)
	return j, true
}

// Run dispatches jobs until ctx is done, then waits for running builds.
func (w *Worker) Run(ctx context.Context) {
	defer w.pool.StopAndWait()
	for {
		select {
		case w.slots <- struct{}{}:
		case <-ctx.Done():
			return
		}

		j, ok := w.next()
		for !ok {
			select {
			case <-w.wake:
				j, ok = w.next()
			case <-ctx.Done():
				return
			}
		}

		w.pool.Submit(func() {
			defer func() { <-w.slots }()
			m := w.build(j.Cluster)
			m.Version = j.Version
			select {
			case w.results <- m:
			case <-ctx.Done():
			}
		})
	}
}
