package camera

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/clock"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/input"
)

// Component type tags of the controllers.
const (
	FlyControllerComponentType   game_object.ComponentType = "fly_controller"
	OrbitControllerComponentType game_object.ComponentType = "orbit_controller"
)

// maxPitch keeps the fly camera just short of looking straight up or down.
const maxPitch = math32.Pi/2 - 0.01

var worldUp = common.Vec3{0, 1, 0}

// FlyController moves its object like a free-flying camera: W/S move along the view direction, A/D strafe,
// E/Space rise, Q falls, and holding Left Shift moves faster. While the right mouse button is held the
// mouse delta turns the view.
type FlyController struct {
	game_object.BaseComponent

	input input.Input
	clock clock.Clock

	speed       float32
	boost       float32
	sensitivity float32

	yaw, pitch float32
}

var (
	_ game_object.Component = &FlyController{}
	_ game_object.Initer    = &FlyController{}
	_ event.Updater         = &FlyController{}
)

// NewFlyController creates a fly controller and installs it on obj.
//
// Parameters:
//   - obj: the object to move, usually the one holding the Camera
//   - in: the input manager read every Update
//   - clk: the clock supplying the frame delta
//   - options: functional options such as WithMoveSpeed
//
// Returns:
//   - *FlyController: the component
func NewFlyController(obj game_object.GameObject, in input.Input, clk clock.Clock, options ...FlyControllerOption) *FlyController {
	if obj == nil || in == nil || clk == nil {
		panic("camera: object, input, and clock are required")
	}
	f := &FlyController{
		BaseComponent: game_object.NewBaseComponent(obj),
		input:         in,
		clock:         clk,
		speed:         5,
		boost:         3,
		sensitivity:   0.003,
	}
	for _, opt := range options {
		opt(f)
	}
	obj.AddComponent(f)
	return f
}

func (f *FlyController) ComponentType() game_object.ComponentType {
	return FlyControllerComponentType
}

// Init derives yaw and pitch from the object's current orientation.
func (f *FlyController) Init() {
	t := f.Object().Transform()
	if t == nil {
		return
	}
	fwd := t.Forward()
	f.yaw = math32.Atan2(-fwd[0], -fwd[2])
	f.pitch = math32.Asin(min(max(fwd[1], -1), 1))
}

// Angles returns the current yaw and pitch in radians.
func (f *FlyController) Angles() (yaw, pitch float32) {
	return f.yaw, f.pitch
}

func (f *FlyController) Update() {
	t := f.Object().Transform()
	if t == nil {
		return
	}
	if f.input.ButtonHeld(common.MouseButtonRight) {
		dx, dy := f.input.MouseDelta()
		f.yaw -= dx * f.sensitivity
		f.pitch = min(max(f.pitch-dy*f.sensitivity, -maxPitch), maxPitch)
	}
	t.Rotation = common.QuatFromAxisAngle(worldUp, f.yaw).Mul(common.QuatFromAxisAngle(common.Vec3{1, 0, 0}, f.pitch)).Normalize()

	forward := t.Rotation.Rotate(common.Vec3{0, 0, -1})
	right := t.Rotation.Rotate(common.Vec3{1, 0, 0})
	var dir common.Vec3
	if f.input.IsHeld(common.KeyW) {
		dir = dir.Add(forward)
	}
	if f.input.IsHeld(common.KeyS) {
		dir = dir.Sub(forward)
	}
	if f.input.IsHeld(common.KeyD) {
		dir = dir.Add(right)
	}
	if f.input.IsHeld(common.KeyA) {
		dir = dir.Sub(right)
	}
	if f.input.IsHeld(common.KeyE) || f.input.IsHeld(common.KeySpace) {
		dir = dir.Add(worldUp)
	}
	if f.input.IsHeld(common.KeyQ) {
		dir = dir.Sub(worldUp)
	}
	if dir.Length() == 0 {
		return
	}
	speed := f.speed
	if f.input.IsHeld(common.KeyLeftShift) {
		speed *= f.boost
	}
	t.Position = t.Position.Add(dir.Normalize().Scale(speed * f.clock.DeltaTime()))
}

// OrbitController keeps its object on a sphere around a target point, facing the target. Dragging with
// the left mouse button orbits, scrolling zooms between the radius bounds.
type OrbitController struct {
	game_object.BaseComponent

	input input.Input

	target    common.Vec3
	radius    float32
	azimuth   float32
	elevation float32

	minRadius, maxRadius       float32
	minElevation, maxElevation float32

	sensitivity float32
	zoomSpeed   float32
}

var (
	_ game_object.Component = &OrbitController{}
	_ game_object.Initer    = &OrbitController{}
	_ event.Updater         = &OrbitController{}
)

// NewOrbitController creates an orbit controller and installs it on obj.
//
// Parameters:
//   - obj: the object to move, usually the one holding the Camera
//   - in: the input manager read every Update
//   - options: functional options such as WithTarget and WithRadius
//
// Returns:
//   - *OrbitController: the component
func NewOrbitController(obj game_object.GameObject, in input.Input, options ...OrbitControllerOption) *OrbitController {
	if obj == nil || in == nil {
		panic("camera: object and input are required")
	}
	o := &OrbitController{
		BaseComponent: game_object.NewBaseComponent(obj),
		input:         in,
		radius:        10,
		elevation:     math32.Pi / 6,
		minRadius:     1,
		maxRadius:     100,
		minElevation:  -math32.Pi/2 + 0.1,
		maxElevation:  math32.Pi/2 - 0.1,
		sensitivity:   0.005,
		zoomSpeed:     1,
	}
	for _, opt := range options {
		opt(o)
	}
	obj.AddComponent(o)
	return o
}

func (o *OrbitController) ComponentType() game_object.ComponentType {
	return OrbitControllerComponentType
}

// Init places the object on its orbit.
func (o *OrbitController) Init() {
	o.place()
}

// Target returns the orbited point.
func (o *OrbitController) Target() common.Vec3 {
	return o.target
}

// SetTarget moves the orbited point and re-places the object.
func (o *OrbitController) SetTarget(target common.Vec3) {
	o.target = target
	o.place()
}

// Radius returns the current distance from the target.
func (o *OrbitController) Radius() float32 {
	return o.radius
}

func (o *OrbitController) Update() {
	if o.input.ButtonHeld(common.MouseButtonLeft) {
		dx, dy := o.input.MouseDelta()
		o.azimuth -= dx * o.sensitivity
		o.elevation += dy * o.sensitivity
	}
	if s := o.input.ScrollDelta(); s != 0 {
		o.radius -= s * o.zoomSpeed
	}
	o.place()
}

// Position returns the point on the orbit for the current spherical coordinates.
func (o *OrbitController) Position() common.Vec3 {
	cosElev, sinElev := math32.Cos(o.elevation), math32.Sin(o.elevation)
	cosAzim, sinAzim := math32.Cos(o.azimuth), math32.Sin(o.azimuth)
	return o.target.Add(common.Vec3{
		o.radius * cosElev * sinAzim,
		o.radius * sinElev,
		o.radius * cosElev * cosAzim,
	})
}

// place clamps the spherical coordinates and points the object at the target.
func (o *OrbitController) place() {
	o.radius = min(max(o.radius, o.minRadius), o.maxRadius)
	o.elevation = min(max(o.elevation, o.minElevation), o.maxElevation)
	if t := o.Object().Transform(); t != nil {
		t.LookAt(o.Position(), o.target, worldUp)
	}
}
