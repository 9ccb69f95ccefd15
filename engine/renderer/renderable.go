package renderer

import "github.com/Carmen-Shannon/oxy-deferred/common"

// Stage identifies the pass a Renderable is drawn into.
type Stage int

const (
	// StageGeometry fills the G-buffer.
	StageGeometry Stage = iota

	// StageShadow writes depth into a shadow map from a light's point of view.
	StageShadow
)

// DrawContext carries the per-pass state a Renderable needs to issue its draws.
type DrawContext struct {
	Stage      Stage
	View       common.Mat4
	Projection common.Mat4
}

// ViewProjection returns Projection * View.
func (c DrawContext) ViewProjection() common.Mat4 {
	return c.Projection.Mul(c.View)
}

// Renderable is anything the graphics manager draws during the geometry and shadow stages.
type Renderable interface {
	// Draw records the renderable's draw calls. The renderable selects its own program for the stage.
	//
	// Parameters:
	//   - pass: the pass being recorded
	//   - ctx: the stage and camera matrices
	Draw(pass Pass, ctx DrawContext)
}
