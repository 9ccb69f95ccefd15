// Package animator evaluates keyframed clips over a joint hierarchy and produces skinning matrices.
package animator

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
)

// ErrUnknownClip is returned by Play and Blend for a clip index the evaluator does not hold.
var ErrUnknownClip = errors.New("animator: unknown clip")

// Pose is the local rotation, translation, and scale of one joint.
type Pose struct {
	Rotation    common.Quat
	Translation common.Vec3
	Scale       common.Vec3
}

// Matrix composes the pose into a local transform.
func (p Pose) Matrix() common.Mat4 {
	return common.FromRotationTranslationScale(p.Rotation, p.Translation, p.Scale)
}

// evaluator is the implementation of the Evaluator interface.
type evaluator struct {
	skin  *model.Skin
	clips []*model.Clip

	// scratch[0] receives the evaluated pose; scratch[1] holds the second clip while blending.
	scratch [2][]Pose

	local    []common.Mat4
	global   []common.Mat4
	skinning []common.Mat4
}

// Evaluator samples clips into per-joint poses and propagates them down the joint hierarchy.
//
// The Evaluator is not safe for concurrent use; it is driven from the frame loop.
type Evaluator interface {
	// JointCount returns the number of joints in the skin.
	//
	// Returns:
	//   - int: the joint count
	JointCount() int

	// ClipCount returns the number of clips the evaluator can play.
	//
	// Returns:
	//   - int: the clip count
	ClipCount() int

	// Play samples one clip at t, wrapped to the clip's duration, and propagates the result.
	//
	// Parameters:
	//   - clip: the clip index
	//   - t: the playback time in seconds
	//
	// Returns:
	//   - error: ErrUnknownClip if clip is out of range
	Play(clip int, t float32) error

	// Blend samples clips a and b at t independently and mixes them per joint before propagating: rotations
	// are spherically interpolated, translations and scales linearly, by mix.
	//
	// Parameters:
	//   - a: the clip weighted by 1 - mix
	//   - b: the clip weighted by mix
	//   - t: the playback time in seconds
	//   - mix: the blend factor, clamped to [0, 1]
	//
	// Returns:
	//   - error: ErrUnknownClip if either clip is out of range
	Blend(a, b int, t, mix float32) error

	// Reset restores the rest pose of every joint and propagates it.
	Reset()

	// Pose returns the last evaluated local pose of a joint.
	//
	// Parameters:
	//   - joint: the joint index
	//
	// Returns:
	//   - Pose: the joint's local pose
	Pose(joint int) Pose

	// Global returns the last propagated model-space matrix of a joint.
	//
	// Parameters:
	//   - joint: the joint index
	//
	// Returns:
	//   - common.Mat4: the joint's global matrix
	Global(joint int) common.Mat4

	// SkinningMatrices returns the per-joint global matrix composed with the inverse bind matrix. The slice
	// is reused by the next evaluation.
	//
	// Returns:
	//   - []common.Mat4: one skinning matrix per joint
	SkinningMatrices() []common.Mat4
}

var _ Evaluator = &evaluator{}

// NewEvaluator validates skin and every clip and returns an Evaluator in the rest pose.
//
// Parameters:
//   - skin: the joint hierarchy
//   - clips: the clips the evaluator can play
//   - options: functional options such as WithClips
//
// Returns:
//   - Evaluator: the evaluator
//   - error: model.ErrInvalidSkin or model.ErrIncompleteClip wrapped with the offending clip
func NewEvaluator(skin *model.Skin, clips []*model.Clip, options ...EvaluatorBuilderOption) (Evaluator, error) {
	if skin == nil {
		panic("animator: skin is required")
	}
	e := &evaluator{
		skin:  skin,
		clips: append([]*model.Clip(nil), clips...),
	}
	for _, opt := range options {
		opt(e)
	}

	if err := skin.Validate(); err != nil {
		return nil, err
	}
	for i, c := range e.clips {
		if err := c.Validate(skin); err != nil {
			return nil, fmt.Errorf("animator: clip %d: %w", i, err)
		}
	}

	n := len(skin.Joints)
	e.scratch[0] = make([]Pose, n)
	e.scratch[1] = make([]Pose, n)
	e.local = make([]common.Mat4, n)
	e.global = make([]common.Mat4, n)
	e.skinning = make([]common.Mat4, n)
	e.Reset()
	return e, nil
}

func (e *evaluator) JointCount() int {
	return len(e.skin.Joints)
}

func (e *evaluator) ClipCount() int {
	return len(e.clips)
}

func (e *evaluator) Play(clip int, t float32) error {
	if clip < 0 || clip >= len(e.clips) {
		return fmt.Errorf("%w: %d of %d", ErrUnknownClip, clip, len(e.clips))
	}
	sample(e.clips[clip], t, e.scratch[0])
	e.propagate()
	return nil
}

func (e *evaluator) Blend(a, b int, t, mix float32) error {
	for _, c := range [2]int{a, b} {
		if c < 0 || c >= len(e.clips) {
			return fmt.Errorf("%w: %d of %d", ErrUnknownClip, c, len(e.clips))
		}
	}
	mix = min(max(mix, 0), 1)

	sample(e.clips[a], t, e.scratch[0])
	sample(e.clips[b], t, e.scratch[1])
	for i := range e.scratch[0] {
		p, q := &e.scratch[0][i], e.scratch[1][i]
		p.Rotation = common.Slerp(p.Rotation, q.Rotation, mix)
		p.Translation = common.LerpVec3(p.Translation, q.Translation, mix)
		p.Scale = common.LerpVec3(p.Scale, q.Scale, mix)
	}
	e.propagate()
	return nil
}

func (e *evaluator) Reset() {
	for i, j := range e.skin.Joints {
		e.scratch[0][i] = Pose{Rotation: j.Rotation, Translation: j.Translation, Scale: j.Scale}
	}
	e.propagate()
}

func (e *evaluator) Pose(joint int) Pose {
	return e.scratch[0][joint]
}

func (e *evaluator) Global(joint int) common.Mat4 {
	return e.global[joint]
}

func (e *evaluator) SkinningMatrices() []common.Mat4 {
	return e.skinning
}

// propagate walks the joints parent-before-child, composing each local matrix onto its parent's global
// matrix, then applies the inverse bind matrices.
func (e *evaluator) propagate() {
	for i, j := range e.skin.Joints {
		e.local[i] = e.scratch[0][i].Matrix()
		if j.Parent < 0 {
			e.global[i] = e.local[i]
		} else {
			e.global[i] = e.global[j.Parent].Mul(e.local[i])
		}
		e.skinning[i] = e.global[i].Mul(j.InverseBind)
	}
}
