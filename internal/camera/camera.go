package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying perspective camera.
type Camera struct {
	Position    mgl32.Vec3
	Yaw, Pitch  float64 // degrees
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
	Speed       float32 // blocks per second

	firstMouse bool
	lastX      float64
	lastY      float64
}

func New(width, height int) *Camera {
	return &Camera{
		Yaw:         -90,
		AspectRatio: float32(width) / float32(height),
		FOV:         70.0,
		NearPlane:   0.1,
		FarPlane:    1000.0,
		Speed:       20,
		firstMouse:  true,
	}
}

// SetViewport updates the aspect ratio after a resize.
func (c *Camera) SetViewport(width, height int) {
	if height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

// ResetMouse makes the next cursor event only record its position.
func (c *Camera) ResetMouse() {
	c.firstMouse = true
}

// HandleMouseMovement turns the camera by the cursor delta.
func (c *Camera) HandleMouseMovement(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX = xpos
		c.lastY = ypos
		c.firstMouse = false
		return
	}

	xoffset := xpos - c.lastX
	yoffset := c.lastY - ypos
	c.lastX = xpos
	c.lastY = ypos

	sensitivity := 0.1
	c.Yaw += xoffset * sensitivity
	c.Pitch += yoffset * sensitivity

	if c.Pitch > 89.0 {
		c.Pitch = 89.0
	}
	if c.Pitch < -89.0 {
		c.Pitch = -89.0
	}
}

func (c *Camera) Front() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(c.Yaw))
	pt := mgl32.DegToRad(float32(c.Pitch))
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// Move flies along the view direction. forward, right and up are -1, 0
// or 1.
func (c *Camera) Move(forward, right, up float32, dt float64) {
	front := c.Front()
	side := front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	dir := front.Mul(forward).Add(side.Mul(right)).Add(mgl32.Vec3{0, up, 0})
	if dir.LenSqr() == 0 {
		return
	}
	c.Position = c.Position.Add(dir.Normalize().Mul(c.Speed * float32(dt)))
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}
