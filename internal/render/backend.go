// Package render hands chunk meshes to a graphics backend. Every Backend
// and Scene method must be called from the thread owning the graphics
// context.
package render

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream.ai/internal/sim/chunk"
)

var ErrUnknownBuffer = errors.New("unknown buffer handle")

type ElementType uint8

const (
	U32 ElementType = iota + 1
)

func (t ElementType) Size() int {
	switch t {
	case U32:
		return 4
	}
	return 0
}

// Element is one vertex attribute.
type Element struct {
	Name  string
	Type  ElementType
	Count int
}

// Layout describes the vertex format of a buffer.
type Layout struct {
	Elements []Element
}

func (l Layout) Stride() int {
	n := 0
	for _, e := range l.Elements {
		n += e.Type.Size() * e.Count
	}
	return n
}

// ChunkLayout is the packed-vertex format: one 32-bit integer per vertex.
func ChunkLayout() Layout {
	return Layout{Elements: []Element{{Name: "a_packed", Type: U32, Count: 1}}}
}

// Uniform names consumed by the chunk shader.
const (
	UniformModel = "m_model"
	UniformView  = "m_view"
	UniformProj  = "m_proj"
)

// Backend is the capability set a graphics API must provide.
type Backend interface {
	CreateBuffer(data []uint32, layout Layout) (chunk.Handle, error)
	DeleteBuffer(h chunk.Handle)
	Bind(h chunk.Handle) error
	SetUniform(name string, m mgl32.Mat4)
	Draw(first, count int) error
}
