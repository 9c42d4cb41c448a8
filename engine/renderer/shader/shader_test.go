package shader

import (
	"strings"
	"testing"
)

const testKernels = `//@oxy:include params
//@oxy:include params

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(2) var output: texture_storage_2d_array<r32float, write>;
@group(0) @binding(1) var<storage, read> rays: array<vec4<f32>>;

// @workgroup_size(1, 1, 1) in a comment is ignored
@compute @workgroup_size(32)
fn reset(@builtin(global_invocation_id) id: vec3<u32>) {
}

@compute @workgroup_size(4, 8, 4)
fn reduce(@builtin(global_invocation_id) id: vec3<u32>) {
}
`

func newTestPreProcessor() PreProcessor {
	return NewPreProcessor(map[AnnotationArg]RegistryEntry{
		"params": {Source: "struct Params { value: f32, }", Type: "Params"},
	})
}

func TestNewShaderSelectsEntryWorkgroupSize(t *testing.T) {
	tests := []struct {
		entry string
		want  [3]uint32
	}{
		{"reset", [3]uint32{32, 1, 1}},
		{"reduce", [3]uint32{4, 8, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			s, err := NewShader("kernels", ShaderTypeCompute, testKernels,
				WithEntryPoint(tt.entry), WithPreProcessor(newTestPreProcessor()))
			if err != nil {
				t.Fatalf("NewShader: %v", err)
			}
			if got := s.WorkgroupSize(); got != tt.want {
				t.Errorf("WorkgroupSize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIncludeEmittedOnce(t *testing.T) {
	s, err := NewShader("kernels", ShaderTypeCompute, testKernels, WithPreProcessor(newTestPreProcessor()))
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	if n := strings.Count(s.Source(), "struct Params"); n != 1 {
		t.Errorf("struct emitted %d times, want 1", n)
	}
	if s.EntryPoint() != "reset" {
		t.Errorf("EntryPoint() = %q, want first compute entry %q", s.EntryPoint(), "reset")
	}
}

func TestBindingsSortedAndNamed(t *testing.T) {
	s, err := NewShader("kernels", ShaderTypeCompute, testKernels, WithPreProcessor(newTestPreProcessor()))
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	b := s.Bindings()
	if len(b) != 3 {
		t.Fatalf("got %d bindings, want 3", len(b))
	}
	for i, want := range []string{"params", "rays", "output"} {
		if b[i].Name != want || b[i].Binding != i {
			t.Errorf("binding %d = %+v, want name %q", i, b[i], want)
		}
	}
	if idx, ok := s.BindingByName("output"); !ok || idx != 2 {
		t.Errorf("BindingByName(output) = %d, %v", idx, ok)
	}
}

func TestUnknownIncludeFails(t *testing.T) {
	_, err := NewShader("bad", ShaderTypeCompute, "//@oxy:include missing\n@compute @workgroup_size(1) fn main() {}")
	if err == nil {
		t.Fatal("expected an error for an unregistered include")
	}
}

func TestMissingEntryPointFails(t *testing.T) {
	_, err := NewShader("bad", ShaderTypeCompute, testKernels,
		WithEntryPoint("nope"), WithPreProcessor(newTestPreProcessor()))
	if err == nil {
		t.Fatal("expected an error for a missing entry point")
	}
}
