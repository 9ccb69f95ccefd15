package light

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// LightBuilderOption is a function that configures a light component during construction. Options that
// do not apply to a light kind are ignored by its constructor.
type LightBuilderOption func(*params)

// WithColor is an option builder that sets the linear RGB color of the light.
//
// Parameters:
//   - c: the color; components may exceed 1
//
// Returns:
//   - LightBuilderOption: a function that applies the color option
func WithColor(c common.Color) LightBuilderOption {
	return func(p *params) {
		p.color = c
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option
func WithIntensity(intensity float32) LightBuilderOption {
	return func(p *params) {
		p.intensity = intensity
	}
}

// WithRadius is an option builder that sets the distance at which point and spot lights stop contributing.
// The spot light's shadow frustum ends at the same distance.
//
// Parameters:
//   - radius: the radius in world units
//
// Returns:
//   - LightBuilderOption: a function that applies the radius option
func WithRadius(radius float32) LightBuilderOption {
	return func(p *params) {
		p.radius = radius
	}
}

// WithHalfAngle is an option builder that sets the cone half angle of a spot light.
//
// Parameters:
//   - rad: the half angle in radians
//
// Returns:
//   - LightBuilderOption: a function that applies the half angle option
func WithHalfAngle(rad float32) LightBuilderOption {
	return func(p *params) {
		p.halfAngle = rad
	}
}

// WithShadows is an option builder that makes a spot or directional light borrow a shadow map when it is
// added to its manager.
//
// Parameters:
//   - enabled: true to cast shadows
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option
func WithShadows(enabled bool) LightBuilderOption {
	return func(p *params) {
		p.shadows = enabled
	}
}

// WithInstanced is an option builder that moves a point light into the manager's single instanced draw.
//
// Parameters:
//   - enabled: true to draw the light instanced
//
// Returns:
//   - LightBuilderOption: a function that applies the instanced option
func WithInstanced(enabled bool) LightBuilderOption {
	return func(p *params) {
		p.instanced = enabled
	}
}

func cos(rad float32) float32 {
	return math32.Cos(rad)
}
