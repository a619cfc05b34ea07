package render

import (
	"slices"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/mesh"
	"voxelstream.ai/internal/sim/voxel"
)

// UploadListener observes meshes entering and leaving the scene.
// Calls happen on the render thread and must not block.
type UploadListener interface {
	MeshUploaded(m *mesh.Mesh)
	MeshEvicted(pos voxel.ChunkPos)
}

type resident struct {
	handle chunk.Handle
	count  int
	model  mgl32.Mat4
	center mgl32.Vec3
}

// Scene owns the GPU buffers of every uploaded chunk mesh.
type Scene struct {
	backend   Backend
	layout    Layout
	meshes    map[voxel.ChunkPos]resident
	listeners []UploadListener

	// count mirrors len(meshes) for readers off the render thread.
	count atomic.Int64
}

func NewScene(b Backend) *Scene {
	return &Scene{backend: b, layout: ChunkLayout(), meshes: map[voxel.ChunkPos]resident{}}
}

func (s *Scene) AddListener(l UploadListener) { s.listeners = append(s.listeners, l) }

// Len returns the number of resident meshes. It is safe to call from any
// goroutine.
func (s *Scene) Len() int { return int(s.count.Load()) }

// Upload replaces the chunk's buffer with m. Empty meshes free the old buffer
// and return a zero handle.
func (s *Scene) Upload(m *mesh.Mesh) (chunk.Handle, error) {
	var h chunk.Handle
	if !m.IsEmpty() {
		var err error
		h, err = s.backend.CreateBuffer(m.Vertices, s.layout)
		if err != nil {
			return 0, err
		}
	}
	if old, ok := s.meshes[m.Pos]; ok {
		s.backend.DeleteBuffer(old.handle)
		delete(s.meshes, m.Pos)
		s.count.Add(-1)
	}
	if h != 0 {
		ox, oy, oz := m.Pos.Origin()
		origin := mgl32.Vec3{float32(ox), float32(oy), float32(oz)}
		half := float32(chunk.Size) / 2
		s.meshes[m.Pos] = resident{
			handle: h,
			count:  len(m.Vertices),
			model:  mgl32.Translate3D(origin.X(), origin.Y(), origin.Z()),
			center: origin.Add(mgl32.Vec3{half, half, half}),
		}
		s.count.Add(1)
	}
	for _, l := range s.listeners {
		l.MeshUploaded(m)
	}
	return h, nil
}

// Evict frees the chunk's buffer, if any.
func (s *Scene) Evict(pos voxel.ChunkPos) {
	old, ok := s.meshes[pos]
	if !ok {
		return
	}
	s.backend.DeleteBuffer(old.handle)
	delete(s.meshes, pos)
	s.count.Add(-1)
	for _, l := range s.listeners {
		l.MeshEvicted(pos)
	}
}

// VisibleFunc decides whether a chunk centered at center should be drawn.
type VisibleFunc func(pos voxel.ChunkPos, center mgl32.Vec3) bool

// Draw issues one draw call per visible resident mesh in coordinate order
// and returns the number drawn.
func (s *Scene) Draw(view, proj mgl32.Mat4, visible VisibleFunc) (int, error) {
	s.backend.SetUniform(UniformView, view)
	s.backend.SetUniform(UniformProj, proj)

	keys := make([]voxel.ChunkPos, 0, len(s.meshes))
	for k := range s.meshes {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, voxel.Compare)

	drawn := 0
	for _, pos := range keys {
		r := s.meshes[pos]
		if visible != nil && !visible(pos, r.center) {
			continue
		}
		s.backend.SetUniform(UniformModel, r.model)
		if err := s.backend.Bind(r.handle); err != nil {
			return drawn, err
		}
		if err := s.backend.Draw(0, r.count); err != nil {
			return drawn, err
		}
		drawn++
	}
	return drawn, nil
}

// WithinDistance returns a VisibleFunc accepting chunks whose center lies
// within radius of eye.
func WithinDistance(eye mgl32.Vec3, radius float32) VisibleFunc {
	return func(_ voxel.ChunkPos, center mgl32.Vec3) bool {
		return center.Sub(eye).Len() <= radius
	}
}
