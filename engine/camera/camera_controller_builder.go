package camera

import "github.com/Carmen-Shannon/oxy-deferred/common"

// FlyControllerOption is a function that configures a FlyController during construction.
type FlyControllerOption func(*FlyController)

// WithMoveSpeed is an option builder that sets the fly speed and the multiplier applied while Left Shift
// is held.
//
// Parameters:
//   - speed: world units per second
//   - boost: the Left Shift multiplier
//
// Returns:
//   - FlyControllerOption: a function that applies the speed option
func WithMoveSpeed(speed, boost float32) FlyControllerOption {
	return func(f *FlyController) {
		f.speed = speed
		f.boost = boost
	}
}

// WithLookSensitivity is an option builder that sets the radians turned per pixel of mouse movement.
//
// Parameters:
//   - sensitivity: radians per pixel
//
// Returns:
//   - FlyControllerOption: a function that applies the sensitivity option
func WithLookSensitivity(sensitivity float32) FlyControllerOption {
	return func(f *FlyController) {
		f.sensitivity = sensitivity
	}
}

// OrbitControllerOption is a function that configures an OrbitController during construction.
type OrbitControllerOption func(*OrbitController)

// WithTarget is an option builder that sets the orbited point.
//
// Parameters:
//   - target: the point the object faces
//
// Returns:
//   - OrbitControllerOption: a function that applies the target option
func WithTarget(target common.Vec3) OrbitControllerOption {
	return func(o *OrbitController) {
		o.target = target
	}
}

// WithRadius is an option builder that sets the initial distance from the target.
//
// Parameters:
//   - radius: the distance
//
// Returns:
//   - OrbitControllerOption: a function that applies the radius option
func WithRadius(radius float32) OrbitControllerOption {
	return func(o *OrbitController) {
		o.radius = radius
	}
}

// WithAngles is an option builder that sets the initial azimuth around the Y axis and elevation above
// the horizontal plane.
//
// Parameters:
//   - azimuth: radians around Y, 0 places the object on +Z
//   - elevation: radians above the horizontal plane
//
// Returns:
//   - OrbitControllerOption: a function that applies the angle option
func WithAngles(azimuth, elevation float32) OrbitControllerOption {
	return func(o *OrbitController) {
		o.azimuth = azimuth
		o.elevation = elevation
	}
}

// WithRadiusBounds is an option builder that sets the zoom limits.
//
// Parameters:
//   - lo: the minimum radius
//   - hi: the maximum radius
//
// Returns:
//   - OrbitControllerOption: a function that applies the bounds option
func WithRadiusBounds(lo, hi float32) OrbitControllerOption {
	return func(o *OrbitController) {
		o.minRadius = lo
		o.maxRadius = hi
	}
}

// WithElevationBounds is an option builder that sets the elevation limits.
//
// Parameters:
//   - lo: the minimum elevation in radians
//   - hi: the maximum elevation in radians
//
// Returns:
//   - OrbitControllerOption: a function that applies the bounds option
func WithElevationBounds(lo, hi float32) OrbitControllerOption {
	return func(o *OrbitController) {
		o.minElevation = lo
		o.maxElevation = hi
	}
}

// WithZoomSpeed is an option builder that sets the radius change per unit of scroll.
//
// Parameters:
//   - speed: world units per scroll step
//
// Returns:
//   - OrbitControllerOption: a function that applies the zoom option
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(o *OrbitController) {
		o.zoomSpeed = speed
	}
}
