package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying perspective camera. Yaw and pitch are in degrees;
// yaw -90 looks down -Z.
type Camera struct {
	Position    mgl32.Vec3
	Yaw         float64
	Pitch       float64
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
	Sensitivity float64

	lastX, lastY float64
	firstMouse   bool
}

func NewCamera(width, height int) *Camera {
	c := &Camera{
		Yaw:         -90,
		FOV:         70.0,
		NearPlane:   0.1,
		FarPlane:    1000.0,
		Sensitivity: 0.1,
		firstMouse:  true,
	}
	c.Resize(width, height)
	return c
}

// Resize updates the aspect ratio; zero sizes (minimised window) are ignored.
func (c *Camera) Resize(width, height int) {
	if width > 0 && height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

// Front is the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(c.Yaw))
	pt := mgl32.DegToRad(float32(c.Pitch))
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// Right is the horizontal unit vector to the right of the view direction.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Front().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

// Look applies a cursor position; the first call only records it.
func (c *Camera) Look(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX, c.lastY = xpos, ypos
		c.firstMouse = false
		return
	}
	dx := (xpos - c.lastX) * c.Sensitivity
	dy := (c.lastY - ypos) * c.Sensitivity
	c.lastX, c.lastY = xpos, ypos

	c.Yaw += dx
	c.Pitch = math.Max(-89, math.Min(89, c.Pitch+dy))
}

// ResetLook makes the next cursor event re-anchor instead of turning.
func (c *Camera) ResetLook() {
	c.firstMouse = true
}

// Move flies the camera; forward and right follow the view, up is world Y.
func (c *Camera) Move(forward, right, up, distance float32) {
	front := c.Front()
	step := front.Mul(forward).Add(c.Right().Mul(right)).Add(mgl32.Vec3{0, up, 0})
	if step.Len() == 0 {
		return
	}
	c.Position = c.Position.Add(step.Normalize().Mul(distance))
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}
