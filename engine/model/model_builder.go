package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
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

// WithParts is an option builder that appends drawable parts to the Model.
//
// Parameters:
//   - parts: the parts, in draw order
//
// Returns:
//   - ModelBuilderOption: a function that applies the parts option to a model
func WithParts(parts ...Part) ModelBuilderOption {
	return func(m *model) {
		m.parts = append(m.parts, parts...)
	}
}
