package shader

// ShaderBuilderOption is a functional option applied to a shader during construction via NewShader.
type ShaderBuilderOption func(*shader)

// WithEntryPoint selects the entry point explicitly, for sources that declare several kernels.
//
// Parameters:
//   - entryPoint: the WGSL function name
//
// Returns:
//   - ShaderBuilderOption: a function that applies the entry point option to a shader
func WithEntryPoint(entryPoint string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = entryPoint
	}
}

// WithPreProcessor sets the pre-processor used to resolve @oxy: annotations.
//
// Parameters:
//   - pp: the pre-processor carrying the struct registry
//
// Returns:
//   - ShaderBuilderOption: a function that applies the pre-processor option to a shader
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(s *shader) {
		s.pp = pp
	}
}
