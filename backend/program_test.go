package backend

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestProgramLayout(t *testing.T) {
	p := &Program{
		Attributes: []Attribute{
			{Name: "in_row1", Components: 3},
			{Name: "in_row2", Components: 3},
			{Name: "in_row3", Components: 3},
			{Name: "in_vert", Components: 3},
			{Name: "in_texture_id", Components: 1},
		},
		Uniforms:     []UniformDecl{{Name: UniformProjection, Floats: 16}},
		Vertices:     18,
		WireVertices: 16,
	}
	if got := p.Stride(); got != 13 {
		t.Errorf("Stride() = %d, want 13", got)
	}
	if u, ok := p.Uniform(UniformProjection); !ok || u.Floats != 16 {
		t.Errorf("Uniform(projection) = %+v, %v", u, ok)
	}
	if _, ok := p.Uniform(UniformParams); ok {
		t.Error("Uniform(params) found on a program that does not declare it")
	}

	tests := []struct {
		mode RasterMode
		n    int
		wire bool
	}{
		{RasterFill, 18, false},
		{RasterWireframe, 16, true},
	}
	for _, tt := range tests {
		n, wire := p.VertexCount(tt.mode)
		if n != tt.n || wire != tt.wire {
			t.Errorf("VertexCount(%v) = %d, %v; want %d, %v", tt.mode, n, wire, tt.n, tt.wire)
		}
	}

	p.WireVertices = 0
	if n, wire := p.VertexCount(RasterWireframe); n != 18 || wire {
		t.Errorf("no outline variant: VertexCount = %d, %v", n, wire)
	}
}

func TestUniformsSet(t *testing.T) {
	var u Uniforms
	m := mgl32.Translate3D(1, 2, 3)
	if err := u.Set(UniformProjection, m[:]); err != nil {
		t.Fatalf("Set projection: %v", err)
	}
	if u.Projection != m {
		t.Errorf("Projection = %v", u.Projection)
	}
	if err := u.Set(UniformParams, []float32{640, 480, 3, 0.25}); err != nil {
		t.Fatalf("Set params: %v", err)
	}
	if u.Params != (mgl32.Vec4{640, 480, 3, 0.25}) {
		t.Errorf("Params = %v", u.Params)
	}

	for _, tt := range []struct {
		name  string
		value []float32
	}{
		{UniformProjection, make([]float32, 9)},
		{UniformParams, make([]float32, 3)},
		{"color", make([]float32, 3)},
	} {
		if err := u.Set(tt.name, tt.value); !errors.Is(err, ErrUnknownUniform) {
			t.Errorf("Set(%q, %d floats) = %v, want ErrUnknownUniform", tt.name, len(tt.value), err)
		}
	}
}
