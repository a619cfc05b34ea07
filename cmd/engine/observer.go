package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/tuning"
)

// observerPath moves the camera in a straight line at constant speed.
type observerPath struct {
	start   mgl32.Vec3
	forward mgl32.Vec3
	speed   float32
	began   time.Time
}

func newObserverPath(o tuning.Observer, began time.Time) observerPath {
	rad := float64(mgl32.DegToRad(o.HeadingDeg))
	return observerPath{
		start:   mgl32.Vec3(o.Start),
		forward: mgl32.Vec3{float32(math.Sin(rad)), 0, float32(math.Cos(rad))},
		speed:   o.Speed,
		began:   began,
	}
}

func (p observerPath) At(now time.Time) mgl32.Vec3 {
	t := float32(now.Sub(p.began).Seconds())
	return p.start.Add(p.forward.Mul(p.speed * t))
}

func (p observerPath) Forward() mgl32.Vec3 { return p.forward }

// camera returns view and projection matrices looking along forward, with
// the far plane just past the generated region.
func camera(eye, forward mgl32.Vec3, renderDistance int) (mgl32.Mat4, mgl32.Mat4) {
	view := mgl32.LookAtV(eye, eye.Add(forward), mgl32.Vec3{0, 1, 0})
	far := float32((renderDistance + 2) * chunk.Size)
	proj := mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, far)
	return view, proj
}
