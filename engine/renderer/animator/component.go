package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/clock"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// AnimatorComponentType is the component tag of Animator.
const AnimatorComponentType game_object.ComponentType = "animator"

// Animator is the component that drives an Evaluator from the scene clock. On every Update it plays or
// blends its clips at the clock time scaled by its speed and uploads the skinning matrices into a storage
// buffer that skinned geometry binds at @group(0) @binding(4).
type Animator struct {
	game_object.BaseComponent

	eval    Evaluator
	clock   clock.Clock
	backend renderer.Backend
	joints  renderer.Buffer
	staging []byte

	clip, blendClip int
	mix, speed      float32
	blending        bool

	report common.Reporter
}

var (
	_ game_object.Component = &Animator{}
	_ game_object.Destroyer = &Animator{}
	_ event.Updater         = &Animator{}
)

// NewAnimator creates the joint matrix buffer, uploads the rest pose, and installs the component on obj.
//
// Parameters:
//   - obj: the owning object
//   - eval: the evaluator holding the skin and clips
//   - clk: the clock supplying playback time
//   - backend: the backend that owns the joint buffer
//   - options: functional options such as WithClip, WithBlend, and WithSpeed
//
// Returns:
//   - *Animator: the component
//   - error: an error if the joint buffer could not be created
func NewAnimator(obj game_object.GameObject, eval Evaluator, clk clock.Clock, backend renderer.Backend, options ...AnimatorBuilderOption) (*Animator, error) {
	if obj == nil || eval == nil || clk == nil || backend == nil {
		panic("animator: object, evaluator, clock, and backend are required")
	}
	a := &Animator{
		BaseComponent: game_object.NewBaseComponent(obj),
		eval:          eval,
		clock:         clk,
		backend:       backend,
		speed:         1,
		report:        common.LogReporter,
	}
	for _, opt := range options {
		opt(a)
	}

	a.staging = model.MarshalMatrices(nil, eval.SkinningMatrices())
	joints, err := backend.CreateBuffer(renderer.BufferDescriptor{
		Label:    fmt.Sprintf("Joint Matrices %d", obj.ID()),
		Usage:    renderer.BufferUsageStorage,
		Contents: a.staging,
	})
	if err != nil {
		return nil, fmt.Errorf("animator: joint buffer: %w", err)
	}
	a.joints = joints
	obj.AddComponent(a)
	return a, nil
}

func (a *Animator) ComponentType() game_object.ComponentType {
	return AnimatorComponentType
}

// Evaluator returns the evaluator driven by the component.
func (a *Animator) Evaluator() Evaluator {
	return a.eval
}

// JointBuffer returns the storage buffer holding the current skinning matrices.
func (a *Animator) JointBuffer() renderer.Buffer {
	return a.joints
}

// Play switches to playing a single clip.
func (a *Animator) Play(clip int) {
	a.clip = clip
	a.blending = false
}

// Blend switches to blending two clips by mix.
func (a *Animator) Blend(from, to int, mix float32) {
	a.clip, a.blendClip, a.mix = from, to, mix
	a.blending = true
}

// SetSpeed sets the playback speed multiplier.
func (a *Animator) SetSpeed(speed float32) {
	a.speed = speed
}

func (a *Animator) Update() {
	if a.joints == nil || a.eval.ClipCount() == 0 {
		return
	}
	t := a.clock.Time() * a.speed

	var err error
	if a.blending {
		err = a.eval.Blend(a.clip, a.blendClip, t, a.mix)
	} else {
		err = a.eval.Play(a.clip, t)
	}
	if err != nil {
		a.report.Report("animator: object %d: %v", a.Object().ID(), err)
		return
	}
	a.staging = model.MarshalMatrices(a.staging, a.eval.SkinningMatrices())
	a.backend.WriteBuffer(a.joints, 0, a.staging)
}

func (a *Animator) Destroy() {
	if a.joints != nil {
		a.joints.Release()
		a.joints = nil
	}
}
