package animator

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
)

// EvaluatorBuilderOption is a functional option for configuring an Evaluator during construction.
type EvaluatorBuilderOption func(*evaluator)

// WithClips is an option builder that appends clips to the ones the Evaluator was created with. They are
// validated with the rest.
//
// Parameters:
//   - clips: the clips to append
//
// Returns:
//   - EvaluatorBuilderOption: a function that appends the clips to an evaluator
func WithClips(clips ...*model.Clip) EvaluatorBuilderOption {
	return func(e *evaluator) {
		e.clips = append(e.clips, clips...)
	}
}

// AnimatorBuilderOption is a functional option for configuring an Animator component during construction.
type AnimatorBuilderOption func(*Animator)

// WithSpeed is an option builder that sets the playback speed multiplier applied to the clock time.
//
// Parameters:
//   - speed: the speed multiplier (1.0 = normal, 0.5 = half speed)
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the speed option to an animator
func WithSpeed(speed float32) AnimatorBuilderOption {
	return func(a *Animator) {
		a.speed = speed
	}
}

// WithClip is an option builder that selects the clip played on each Update.
//
// Parameters:
//   - clip: the clip index
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the clip option to an animator
func WithClip(clip int) AnimatorBuilderOption {
	return func(a *Animator) {
		a.clip = clip
		a.blending = false
	}
}

// WithBlend is an option builder that makes each Update blend two clips.
//
// Parameters:
//   - from: the clip weighted by 1 - mix
//   - to: the clip weighted by mix
//   - mix: the blend factor
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the blend option to an animator
func WithBlend(from, to int, mix float32) AnimatorBuilderOption {
	return func(a *Animator) {
		a.clip, a.blendClip, a.mix = from, to, mix
		a.blending = true
	}
}

// WithAnimatorReporter is an option builder that sets where playback errors are reported.
//
// Parameters:
//   - r: the reporter
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the reporter option to an animator
func WithAnimatorReporter(r common.Reporter) AnimatorBuilderOption {
	return func(a *Animator) {
		a.report = r
	}
}
