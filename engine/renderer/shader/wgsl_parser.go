package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// lineCommentRegex strips // comments.
	lineCommentRegex = regexp.MustCompile(`//[^\n]*`)

	// blockCommentRegex strips /* */ comments.
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> volume: VolumeConstants;
	// or handle types: @group(0) @binding(3) var probeIrradiance: texture_storage_2d_array<rgba16float, write>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// Binding is one resource declaration parsed from WGSL source.
type Binding struct {
	Group        int
	Binding      int
	AddressSpace string
	Name         string
	Type         string
}

func stripComments(source string) string {
	return lineCommentRegex.ReplaceAllString(blockCommentRegex.ReplaceAllString(source, ""), "")
}

// parseBindings extracts every @group/@binding declaration from WGSL source, sorted by
// group then binding.
//
// Parameters:
//   - source: the WGSL source code string
//
// Returns:
//   - []Binding: the parsed declarations
func parseBindings(source string) []Binding {
	cleaned := stripComments(source)
	matches := bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1)

	result := make([]Binding, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		result = append(result, Binding{
			Group:        group,
			Binding:      binding,
			AddressSpace: strings.TrimSpace(match[3]),
			Name:         strings.TrimSpace(match[4]),
			Type:         strings.TrimSpace(match[5]),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Binding < result[j].Binding
	})
	return result
}

// parseEntryPoint returns the name of the first entry point of the given stage, or "main".
func parseEntryPoint(source string, shaderType ShaderType) string {
	cleaned := stripComments(source)
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		re = computeEntryRegex
	}
	if m := re.FindStringSubmatch(cleaned); m != nil {
		return m[1]
	}
	return "main"
}

// parseWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions from WGSL source.
// Omitted dimensions default to 1, as in WGSL.
// Returns [1, 1, 1] if no @workgroup_size annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - [3]uint32: the workgroup size as [x, y, z]
func parseWorkgroupSize(source string) [3]uint32 {
	cleaned := stripComments(source)
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(cleaned)
	if match == nil {
		return result
	}

	for i := 1; i <= 3; i++ {
		if match[i] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i], 10, 32); err == nil {
			result[i-1] = uint32(v)
		}
	}
	return result
}
