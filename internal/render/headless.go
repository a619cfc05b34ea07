package render

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream.ai/internal/sim/chunk"
)

// Headless is an in-memory Backend for servers and tests.
type Headless struct {
	mu       sync.Mutex
	next     chunk.Handle
	buffers  map[chunk.Handle][]uint32
	bound    chunk.Handle
	uniforms map[string]mgl32.Mat4
	stats    HeadlessStats
}

type HeadlessStats struct {
	Buffers      int    `json:"buffers"`
	BufferBytes  int    `json:"buffer_bytes"`
	CreatedTotal uint64 `json:"created_total"`
	DeletedTotal uint64 `json:"deleted_total"`
	DrawCalls    uint64 `json:"draw_calls"`
	DrawnVerts   uint64 `json:"drawn_vertices"`
}

func NewHeadless() *Headless {
	return &Headless{
		buffers:  map[chunk.Handle][]uint32{},
		uniforms: map[string]mgl32.Mat4{},
	}
}

func (h *Headless) CreateBuffer(data []uint32, layout Layout) (chunk.Handle, error) {
	if layout.Stride() != 4 {
		return 0, fmt.Errorf("headless: unsupported vertex stride %d", layout.Stride())
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.buffers[h.next] = append([]uint32(nil), data...)
	h.stats.CreatedTotal++
	h.stats.BufferBytes += 4 * len(data)
	return h.next, nil
}

func (h *Headless) DeleteBuffer(id chunk.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[id]; ok {
		h.stats.BufferBytes -= 4 * len(b)
		h.stats.DeletedTotal++
		delete(h.buffers, id)
	}
	if h.bound == id {
		h.bound = 0
	}
}

func (h *Headless) Bind(id chunk.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.buffers[id]; !ok {
		return fmt.Errorf("bind %d: %w", id, ErrUnknownBuffer)
	}
	h.bound = id
	return nil
}

func (h *Headless) SetUniform(name string, m mgl32.Mat4) {
	h.mu.Lock()
	h.uniforms[name] = m
	h.mu.Unlock()
}

func (h *Headless) Uniform(name string) (mgl32.Mat4, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.uniforms[name]
	return m, ok
}

func (h *Headless) Draw(first, count int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buffers[h.bound]
	if !ok {
		return fmt.Errorf("draw: %w", ErrUnknownBuffer)
	}
	if first < 0 || first+count > len(b) {
		return fmt.Errorf("draw %d+%d beyond buffer of %d", first, count, len(b))
	}
	h.stats.DrawCalls++
	h.stats.DrawnVerts += uint64(count)
	return nil
}

// Buffer returns a copy of the buffer contents.
func (h *Headless) Buffer(id chunk.Handle) ([]uint32, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buffers[id]
	return append([]uint32(nil), b...), ok
}

func (h *Headless) Stats() HeadlessStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats
	s.Buffers = len(h.buffers)
	return s
}
