// Package camera provides the camera component the graphics manager renders from and controller components
// that move a camera's object from input.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
)

// CameraComponentType is the component tag of Camera.
const CameraComponentType game_object.ComponentType = "camera"

// Camera is a perspective camera component. Its view matrix is the rigid inverse of its object's
// transform, so the camera looks down the object's -Z axis.
type Camera struct {
	game_object.BaseComponent

	fov    float32
	aspect float32
	near   float32
	far    float32

	projection common.Mat4
	dirty      bool
}

var _ game_object.Component = &Camera{}

// NewCamera creates a camera with sensible defaults, applies options, and installs it on obj.
//
// Parameters:
//   - obj: the object whose transform places the camera
//   - options: functional options such as WithFov and WithAspect
//
// Returns:
//   - *Camera: the component
func NewCamera(obj game_object.GameObject, options ...CameraBuilderOption) *Camera {
	if obj == nil {
		panic("camera: object is required")
	}
	c := &Camera{
		BaseComponent: game_object.NewBaseComponent(obj),
		fov:           math32.Pi / 4,
		aspect:        4.0 / 3.0,
		near:          0.1,
		far:           100,
		dirty:         true,
	}
	for _, opt := range options {
		opt(c)
	}
	obj.AddComponent(c)
	return c
}

func (c *Camera) ComponentType() game_object.ComponentType {
	return CameraComponentType
}

// Fov returns the vertical field of view in radians.
func (c *Camera) Fov() float32 { return c.fov }

// Aspect returns the aspect ratio (width / height).
func (c *Camera) Aspect() float32 { return c.aspect }

// Near returns the near clipping plane distance.
func (c *Camera) Near() float32 { return c.near }

// Far returns the far clipping plane distance.
func (c *Camera) Far() float32 { return c.far }

// SetFov sets the vertical field of view in radians.
func (c *Camera) SetFov(fov float32) {
	c.fov = fov
	c.dirty = true
}

// SetAspect sets the aspect ratio. The graphics manager calls it when the surface is resized.
func (c *Camera) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.dirty = true
}

// SetClip sets the near and far clipping plane distances.
func (c *Camera) SetClip(near, far float32) {
	c.near, c.far = near, far
	c.dirty = true
}

// Position returns the world-space camera position, or the origin once the object is destroyed.
//
// Returns:
//   - common.Vec3: the camera position
func (c *Camera) Position() common.Vec3 {
	if t := c.Object().Transform(); t != nil {
		return t.Position
	}
	return common.Vec3{}
}

// View returns the view matrix: the rigid inverse of the object's transform.
//
// Returns:
//   - common.Mat4: the world-to-view matrix
func (c *Camera) View() common.Mat4 {
	t := c.Object().Transform()
	if t == nil {
		return common.Mat4Identity()
	}
	return t.View()
}

// Projection returns the perspective projection, recomputed only after a setter ran.
//
// Returns:
//   - common.Mat4: the view-to-clip matrix
func (c *Camera) Projection() common.Mat4 {
	if c.dirty {
		c.projection = common.Perspective(c.fov, c.aspect, c.near, c.far)
		c.dirty = false
	}
	return c.projection
}
