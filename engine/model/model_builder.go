package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that overrides the mesh name used by the Model and its buffer labels.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithClips is an option builder that replaces the clips bundled with the mesh. The clips are not
// validated against the skin; the animator validates clips it is given.
//
// Parameters:
//   - clips: the animation clips to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the clips option to a model
func WithClips(clips ...*Clip) ModelBuilderOption {
	return func(m *model) {
		m.clips = clips
	}
}
