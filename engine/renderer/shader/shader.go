package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// ShaderType identifies the pipeline stage a shader entry point belongs to.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	entryPoint    string
	workGroupSize [3]uint32
	bindings      []Binding

	pp PreProcessor
}

// Shader is a pre-processed WGSL program plus the metadata the renderer needs to build a
// pipeline from it: the entry point, its workgroup size, and the resource declarations.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader's entry point.
	//
	// Returns:
	//   - ShaderType: compute, vertex, or fragment
	ShaderType() ShaderType

	// EntryPoint returns the function name used as the pipeline entry point.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// WorkgroupSize returns the @workgroup_size of the entry point. Render shaders report [1, 1, 1].
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Bindings returns every @group/@binding declaration in the processed source.
	//
	// Returns:
	//   - []Binding: the declarations sorted by group then binding
	Bindings() []Binding

	// BindingByName finds the binding index of a named group-0 resource.
	//
	// Parameters:
	//   - name: the WGSL variable name
	//
	// Returns:
	//   - int: the binding index
	//   - bool: true if the variable is declared
	BindingByName(name string) (int, bool)
}

var _ Shader = &shader{}

// NewShader pre-processes source and parses the metadata of its entry point.
//
// Parameters:
//   - key: the unique shader key
//   - shaderType: the stage of the entry point
//   - source: the raw, annotated WGSL source
//   - opts: builder options (entry point, pre-processor)
//
// Returns:
//   - Shader: the processed shader
//   - error: an error if pre-processing fails or the entry point is not declared
func NewShader(key string, shaderType ShaderType, source string, opts ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pp == nil {
		s.pp = NewPreProcessor(nil)
	}

	processed, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = processed

	if s.entryPoint == "" {
		s.entryPoint = parseEntryPoint(processed, shaderType)
	}
	if !strings.Contains(stripComments(processed), "fn "+s.entryPoint) {
		return nil, fmt.Errorf("shader %s: entry point %q not found", key, s.entryPoint)
	}

	s.workGroupSize = [3]uint32{1, 1, 1}
	if shaderType == ShaderTypeCompute {
		s.workGroupSize = entryWorkgroupSize(processed, s.entryPoint)
	}
	s.bindings = parseBindings(processed)
	return s, nil
}

// entryWorkgroupSize finds the @workgroup_size attribute attached to a specific entry
// point, so one WGSL file can hold several kernels.
func entryWorkgroupSize(source, entryPoint string) [3]uint32 {
	cleaned := stripComments(source)
	fnRe := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(entryPoint) + `\s*\(`)
	loc := fnRe.FindStringIndex(cleaned)
	if loc == nil {
		return parseWorkgroupSize(cleaned)
	}
	head := cleaned[:loc[0]]
	all := workgroupSizeRegex.FindAllStringIndex(head, -1)
	if len(all) == 0 {
		return [3]uint32{1, 1, 1}
	}
	last := all[len(all)-1]
	return parseWorkgroupSize(head[last[0]:last[1]])
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) BindingByName(name string) (int, bool) {
	for _, b := range s.bindings {
		if b.Group == 0 && b.Name == name {
			return b.Binding, true
		}
	}
	return 0, false
}
