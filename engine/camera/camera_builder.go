package camera

// CameraBuilderOption is a function that configures a Camera during construction.
type CameraBuilderOption func(*Camera)

// WithFov is an option builder that sets the vertical field of view.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that applies the fov option to a Camera
func WithFov(fov float32) CameraBuilderOption {
	return func(c *Camera) {
		c.fov = fov
	}
}

// WithAspect is an option builder that sets the aspect ratio.
//
// Parameters:
//   - aspect: width divided by height
//
// Returns:
//   - CameraBuilderOption: a function that applies the aspect option to a Camera
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *Camera) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithNear is an option builder that sets the near clipping plane distance.
//
// Parameters:
//   - near: the near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that applies the near option to a Camera
func WithNear(near float32) CameraBuilderOption {
	return func(c *Camera) {
		c.near = near
	}
}

// WithFar is an option builder that sets the far clipping plane distance.
//
// Parameters:
//   - far: the far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that applies the far option to a Camera
func WithFar(far float32) CameraBuilderOption {
	return func(c *Camera) {
		c.far = far
	}
}
