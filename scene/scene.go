// Package scene holds the static cube geometry, the object placements and the
// transform composition used by the frame loop.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FacesPerCube is the number of triangle-fan faces in CubePositions.
const (
	FacesPerCube    = 6
	VerticesPerFace = 4
)

// CubePositions is a unit cube as six quads: top, bottom, front, back, right,
// left. Each quad is drawn as a four-vertex triangle fan.
var CubePositions = []float32{
	// top
	0.5, 0.5, -0.5,
	-0.5, 0.5, -0.5,
	-0.5, 0.5, 0.5,
	0.5, 0.5, 0.5,

	// bottom
	0.5, -0.5, -0.5,
	-0.5, -0.5, -0.5,
	-0.5, -0.5, 0.5,
	0.5, -0.5, 0.5,

	// front
	0.5, 0.5, 0.5,
	-0.5, 0.5, 0.5,
	-0.5, -0.5, 0.5,
	0.5, -0.5, 0.5,

	// back
	0.5, 0.5, -0.5,
	-0.5, 0.5, -0.5,
	-0.5, -0.5, -0.5,
	0.5, -0.5, -0.5,

	// right
	0.5, 0.5, -0.5,
	0.5, 0.5, 0.5,
	0.5, -0.5, 0.5,
	0.5, -0.5, -0.5,

	// left
	-0.5, 0.5, 0.5,
	-0.5, 0.5, -0.5,
	-0.5, -0.5, -0.5,
	-0.5, -0.5, 0.5,
}

// CubeColors gives each face of CubePositions a flat RGB color.
var CubeColors = []float32{
	0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0,
	1, 0.5, 0, 1, 0.5, 0, 1, 0.5, 0, 1, 0.5, 0,
	1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0,
	1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0,
	0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1,
	1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1,
}

// DefaultObjects are the ten cube placements, in draw order.
var DefaultObjects = []mgl32.Vec3{
	{0, 0, 0},
	{2, 5, -15},
	{-1.5, -2.2, -2.5},
	{-3.8, -2, -12.3},
	{2.4, -0.4, -3.5},
	{-1.7, 3, -7.5},
	{1.3, -2, -2.5},
	{1.5, 2, -2.5},
	{1.5, 0.2, -1.5},
	{-1.3, 1, -1.5},
}

var rotationAxis = mgl32.Vec3{1, 0.3, 0.5}.Normalize()

const (
	// OrbitRadius is the distance of the orbiting eye from the origin.
	OrbitRadius = 10
	// OrbitStep is added to the orbit angle after each rendered frame.
	OrbitStep = 0.01
	// orbitRate converts the accumulated angle to radians.
	orbitRate = 0.05
)

// Projection is a right-handed perspective projection; fovy is in degrees.
func Projection(fovy, aspect, near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(fovy), aspect, near, far)
}

// Model places the i-th object at pos, rotated by 20 degrees per index.
func Model(i int, pos mgl32.Vec3) mgl32.Mat4 {
	angle := mgl32.DegToRad(20 * float32(i))
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).Mul4(mgl32.HomogRotate3D(angle, rotationAxis))
}

// OrbitView looks at the origin from a point on a horizontal circle.
func OrbitView(angle float32) mgl32.Mat4 {
	a := float64(angle * orbitRate)
	eye := mgl32.Vec3{float32(math.Sin(a) * OrbitRadius), 0, float32(math.Cos(a) * OrbitRadius)}
	return mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

// MVP composes projection * view * model.
func MVP(projection, view, model mgl32.Mat4) mgl32.Mat4 {
	return projection.Mul4(view).Mul4(model)
}

// Object is one placed instance.
type Object struct {
	Position mgl32.Vec3
	Model    mgl32.Mat4
}

// Scene is the placed object list with its projection. Objects are drawn in
// slice order.
type Scene struct {
	Objects    []Object
	Projection mgl32.Mat4
}

// New places every position with Model and derives the projection once.
func New(positions []mgl32.Vec3, fovy, aspect, near, far float32) *Scene {
	s := &Scene{
		Objects:    make([]Object, len(positions)),
		Projection: Projection(fovy, aspect, near, far),
	}
	for i, p := range positions {
		s.Objects[i] = Object{Position: p, Model: Model(i, p)}
	}
	return s
}

// Transforms returns the per-object MVP matrices for view, in object order.
func (s *Scene) Transforms(view mgl32.Mat4) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.Objects))
	for i, o := range s.Objects {
		out[i] = MVP(s.Projection, view, o.Model)
	}
	return out
}
