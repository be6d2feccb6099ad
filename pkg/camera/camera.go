// Package camera implements the first-person flythrough camera: mouse
// look, WASD movement, gravity with jumping in walk mode and free vertical
// movement in flight mode.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Direction is a movement direction relative to the camera
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

const (
	DefaultSpeed       = 200
	DefaultSensitivity = 0.1
	DefaultGravity     = -981
	DefaultFOV         = 45
	// sprintFactor multiplies the time step while sprinting
	sprintFactor = 10
	maxPitch     = 89
)

// Options configures a camera
type Options struct {
	Position    mgl32.Vec3
	WorldUp     mgl32.Vec3
	Front       mgl32.Vec3
	Speed       float32
	Sensitivity float32
	Gravity     float32
	FOV         float32 // degrees
	Near        float32
	Far         float32
	Aspect      float32
	FlightMode  bool
}

// DefaultOptions places the camera above the origin looking down and away
func DefaultOptions() Options {
	return Options{
		Position:    mgl32.Vec3{0, 300, 0},
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Front:       mgl32.Vec3{0, 100, 0}.Sub(mgl32.Vec3{300, 300, 300}),
		Speed:       DefaultSpeed,
		Sensitivity: DefaultSensitivity,
		Gravity:     DefaultGravity,
		FOV:         DefaultFOV,
		Near:        10,
		Far:         10000,
		Aspect:      16.0 / 9.0,
	}
}

// Controls is the keyboard state relevant to the camera for one frame
type Controls struct {
	Forward, Backward bool
	Left, Right       bool
	Up, Down          bool
	Sprint            bool
	// ToggleFlight is true on the frame the flight key is released
	ToggleFlight bool
}

// Camera is a yaw/pitch camera
type Camera struct {
	Position mgl32.Vec3
	front    mgl32.Vec3
	top      mgl32.Vec3
	right    mgl32.Vec3
	worldUp  mgl32.Vec3

	yaw, pitch float32

	speed       float32
	sensitivity float32
	gravity     float32

	fov, near, far, aspect float32

	lastMouseX, lastMouseY float64
	firstMouse             bool

	flightMode bool
	fallSpeed  float32
	onGround   bool
}

// New creates a camera. Yaw and pitch are derived from opts.Front.
func New(opts Options) *Camera {
	if opts.WorldUp == (mgl32.Vec3{}) {
		opts.WorldUp = mgl32.Vec3{0, 1, 0}
	}
	if opts.Front == (mgl32.Vec3{}) {
		opts.Front = mgl32.Vec3{0, 0, 1}
	}

	front := opts.Front.Normalize()
	c := &Camera{
		Position:    opts.Position,
		worldUp:     opts.WorldUp,
		yaw:         mgl32.RadToDeg(math32.Atan2(front.Z(), front.X())),
		pitch:       mgl32.RadToDeg(math32.Asin(mgl32.Clamp(front.Y(), -1, 1))),
		speed:       opts.Speed,
		sensitivity: opts.Sensitivity,
		gravity:     opts.Gravity,
		fov:         opts.FOV,
		near:        opts.Near,
		far:         opts.Far,
		aspect:      opts.Aspect,
		firstMouse:  true,
		flightMode:  opts.FlightMode,
	}
	c.pitch = mgl32.Clamp(c.pitch, -maxPitch, maxPitch)
	c.updateVectors()
	return c
}

// ProcessInput applies one frame of keyboard movement
func (c *Camera) ProcessInput(ctl Controls, deltaTime float32) {
	dt := deltaTime
	if ctl.Sprint {
		dt *= sprintFactor
	}

	if ctl.Forward {
		c.Move(Forward, dt)
	}
	if ctl.Backward {
		c.Move(Backward, dt)
	}
	if ctl.Left {
		c.Move(Left, dt)
	}
	if ctl.Right {
		c.Move(Right, dt)
	}
	if ctl.Up {
		c.Move(Up, dt)
	}
	if ctl.Down {
		c.Move(Down, dt)
	}
	if ctl.ToggleFlight {
		c.SetFlightMode(!c.flightMode)
	}
}

// Move moves the camera one step in dir. In walk mode Up jumps, and only
// when the camera is on the ground.
func (c *Camera) Move(dir Direction, deltaTime float32) {
	step := c.speed * deltaTime

	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.front.Mul(step))
	case Backward:
		c.Position = c.Position.Sub(c.front.Mul(step))
	case Left:
		c.Position = c.Position.Sub(c.right.Mul(step))
	case Right:
		c.Position = c.Position.Add(c.right.Mul(step))
	case Up:
		if c.flightMode {
			c.Position = c.Position.Add(c.worldUp.Mul(2 * step))
		} else if c.onGround {
			c.fallSpeed = -0.5 * c.gravity
		}
	case Down:
		c.Position = c.Position.Sub(c.worldUp.Mul(step))
	}
}

// HandleMouse turns the camera by the cursor movement since the last
// call. While the cursor is unlocked only the position is tracked.
func (c *Camera) HandleMouse(x, y float64, cursorLocked bool) {
	if !cursorLocked || c.firstMouse {
		c.lastMouseX, c.lastMouseY = x, y
		if cursorLocked {
			c.firstMouse = false
		}
		return
	}

	dx := float32(x-c.lastMouseX) * c.sensitivity
	dy := float32(c.lastMouseY-y) * c.sensitivity
	c.lastMouseX, c.lastMouseY = x, y

	c.yaw += dx
	c.pitch = mgl32.Clamp(c.pitch+dy, -maxPitch, maxPitch)
	c.updateVectors()
}

// Update integrates gravity in walk mode
func (c *Camera) Update(deltaTime float32) {
	if c.flightMode {
		c.fallSpeed = 0
		return
	}
	c.fallSpeed += c.gravity * deltaTime
	c.Position[1] += c.fallSpeed * deltaTime
}

// SetOnGround records whether the ground pushed the camera up this frame.
// Landing cancels any downward speed.
func (c *Camera) SetOnGround(onGround bool) {
	c.onGround = onGround
	if onGround && c.fallSpeed < 0 {
		c.fallSpeed = 0
	}
}

func (c *Camera) updateVectors() {
	yaw := mgl32.DegToRad(c.yaw)
	pitch := mgl32.DegToRad(c.pitch)

	front := mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}
	c.front = front.Normalize()
	c.right = c.front.Cross(c.worldUp).Normalize()
	c.top = c.right.Cross(c.front).Normalize()
}

// View returns the look-at matrix
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.front), c.top)
}

// Projection returns the perspective matrix
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
}

func (c *Camera) Front() mgl32.Vec3     { return c.front }
func (c *Camera) Right() mgl32.Vec3     { return c.right }
func (c *Camera) Top() mgl32.Vec3       { return c.top }
func (c *Camera) Yaw() float32          { return c.yaw }
func (c *Camera) Pitch() float32        { return c.pitch }
func (c *Camera) FallSpeed() float32    { return c.fallSpeed }
func (c *Camera) OnGround() bool        { return c.onGround }
func (c *Camera) FlightMode() bool      { return c.flightMode }
func (c *Camera) Far() float32          { return c.far }
func (c *Camera) SetFOV(deg float32)    { c.fov = deg }
func (c *Camera) SetNear(near float32)  { c.near = near }
func (c *Camera) SetFar(far float32)    { c.far = far }
func (c *Camera) SetAspect(a float32)   { c.aspect = a }
func (c *Camera) SetFlightMode(on bool) { c.flightMode = on; c.fallSpeed = 0 }
