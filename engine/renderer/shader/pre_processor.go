// pre_processor.go implements the WGSL shader pre-processor. It scans shader source for
// @oxy: annotations and replaces them with the registered WGSL struct sources. The struct
// registry is supplied by the caller so GPU type packages never need to import each other.
package shader

import (
	"fmt"
	"strings"
)

// RegistryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file) with
// the WGSL type name it declares.
type RegistryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name declared by Source (e.g. "PunctualLight").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps struct type argument keys to their embedded WGSL source and type name.
	structRegistry map[AnnotationArg]RegistryEntry

	// includes records the struct keys injected by the most recent Process call.
	includes []AnnotationArg
}

// PreProcessor turns annotated WGSL into plain WGSL.
type PreProcessor interface {
	// Process replaces every @oxy:include annotation with the registered struct source.
	// A struct included more than once is only emitted the first time.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed or references an unknown struct
	Process(source string) (string, error)

	// Includes returns the struct keys injected by the most recent call to Process, in
	// source order.
	//
	// Returns:
	//   - []AnnotationArg: the included struct keys
	Includes() []AnnotationArg

	// Register adds or replaces a struct registry entry.
	//
	// Parameters:
	//   - key: the include argument
	//   - entry: the struct source and type name
	Register(key AnnotationArg, entry RegistryEntry)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor seeded with the given struct registry.
//
// Parameters:
//   - registry: the initial struct registry, may be nil
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(registry map[AnnotationArg]RegistryEntry) PreProcessor {
	p := &preProcessor{structRegistry: make(map[AnnotationArg]RegistryEntry, len(registry))}
	for k, v := range registry {
		p.structRegistry[k] = v
	}
	return p
}

func (p *preProcessor) Register(key AnnotationArg, entry RegistryEntry) {
	p.structRegistry[key] = entry
}

func (p *preProcessor) Includes() []AnnotationArg {
	return p.includes
}

func (p *preProcessor) Process(source string) (string, error) {
	p.includes = p.includes[:0]
	seen := make(map[AnnotationArg]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			key := a.Args[0]
			entry, ok := p.structRegistry[key]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, key)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			p.includes = append(p.includes, key)
			out = append(out, entry.Source)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}
