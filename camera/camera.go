// Package camera is a free-flying Euler-angle camera driven by mouse offsets
// and directional movement.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Direction is a movement command.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Defaults.
const (
	DefaultYaw         float32 = -90
	DefaultPitch       float32 = 0
	DefaultSpeed       float32 = 2.5
	DefaultSensitivity float32 = 0.1
	DefaultZoom        float32 = 45

	maxPitch float32 = 89
)

type Camera struct {
	Position mgl32.Vec3
	Front    mgl32.Vec3
	Up       mgl32.Vec3
	Right    mgl32.Vec3
	WorldUp  mgl32.Vec3

	Yaw   float32
	Pitch float32

	Speed       float32
	Sensitivity float32
	Zoom        float32

	// ConstrainPitch keeps the pitch inside (-89, 89) so the view never flips.
	ConstrainPitch bool
}

// New returns a camera at position looking down -Z.
func New(position mgl32.Vec3) *Camera {
	c := &Camera{
		Position:       position,
		WorldUp:        mgl32.Vec3{0, 1, 0},
		Yaw:            DefaultYaw,
		Pitch:          DefaultPitch,
		Speed:          DefaultSpeed,
		Sensitivity:    DefaultSensitivity,
		Zoom:           DefaultZoom,
		ConstrainPitch: true,
	}
	c.update()
	return c
}

// ViewMatrix is the look-at matrix for the current position and orientation.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

// ProcessKeyboard moves the camera along dir for dt seconds.
func (c *Camera) ProcessKeyboard(dir Direction, dt float32) {
	v := c.Speed * dt
	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.Front.Mul(v))
	case Backward:
		c.Position = c.Position.Sub(c.Front.Mul(v))
	case Left:
		c.Position = c.Position.Sub(c.Right.Mul(v))
	case Right:
		c.Position = c.Position.Add(c.Right.Mul(v))
	}
}

// ProcessMouseMovement turns the camera by a cursor offset in pixels.
func (c *Camera) ProcessMouseMovement(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch += dy * c.Sensitivity
	if c.ConstrainPitch {
		if c.Pitch > maxPitch {
			c.Pitch = maxPitch
		}
		if c.Pitch < -maxPitch {
			c.Pitch = -maxPitch
		}
	}
	c.update()
}

func (c *Camera) update() {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))
	front := mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}
	c.Front = front.Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}
