// annotations.go defines the annotation syntax understood by the WGSL pre-processor.
// Annotations are single-line WGSL comments prefixed with @oxy: that inject shared struct
// definitions, so the Go-side GPU types and the kernels that read them never drift apart.
package shader

import (
	"fmt"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects the WGSL source of a registered struct definition at the
	// annotation site.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include punctual_light
	AnnotationTypeInclude AnnotationType = "include"
)

// AnnotationArg is a registry key used as an annotation argument.
type AnnotationArg string

// Annotation is a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments; for include, [0] is the struct key.
	Args []AnnotationArg

	// Line is the 1-based source line the annotation was found on.
	Line int
}

// parseAnnotation parses one source line. It returns nil, nil for lines that are not
// annotations.
func parseAnnotation(line string, lineNumber int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	body, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	body, ok = strings.CutPrefix(strings.TrimSpace(body), annotationPrefix)
	if !ok {
		return nil, nil
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, fmt.Errorf("line %d: empty annotation", lineNumber)
	}

	a := &Annotation{Type: AnnotationType(fields[0]), Line: lineNumber}
	for _, f := range fields[1:] {
		a.Args = append(a.Args, AnnotationArg(f))
	}

	switch a.Type {
	case AnnotationTypeInclude:
		if len(a.Args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy:include takes exactly one argument, got %d", lineNumber, len(a.Args))
		}
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNumber, a.Type)
	}
	return a, nil
}
