package backend

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniform names shared by all programs.
const (
	// UniformProjection is the combined view-projection matrix, 16 floats
	// in column-major order.
	UniformProjection = "projection"

	// UniformParams holds viewport width, viewport height, point size in
	// pixels and frustum scale.
	UniformParams = "params"
)

// Attribute is one named per-instance vertex attribute.
type Attribute struct {
	// Name is the attribute name in the shader (in_vert, in_color, ...).
	Name string

	// Components is the number of float32 components (1 to 4).
	Components int
}

// UniformDecl declares a uniform a program reads.
type UniformDecl struct {
	Name string

	// Floats is the uniform size in float32 values.
	Floats int
}

// Program describes a shader program and the instance layout it consumes.
//
// Geometry is expanded per instance: each record of the instance buffer
// is drawn as Vertices vertices (a triangle list) whose positions the
// vertex stage derives from the record and the vertex index. Programs
// with WireVertices > 0 also provide a line-list outline of the same
// shape through the vs_wire entry point.
type Program struct {
	Name string

	// Source is the WGSL module.
	Source string

	// Attributes is the per-instance record layout, in shader location
	// order starting at location 0.
	Attributes []Attribute

	// Uniforms lists the uniforms the program declares. UniformProjection
	// is mandatory.
	Uniforms []UniformDecl

	// Vertices is the triangle-list vertex count per instance.
	Vertices int

	// WireVertices is the line-list vertex count per instance drawn by
	// vs_wire, or 0 if the program has no outline variant.
	WireVertices int

	// Textured programs sample a layered texture at binding 2 with a
	// sampler at binding 3.
	Textured bool

	// Vertex is the CPU form of the vertex stage.
	Vertex VertexFunc
}

// Stride returns the record size in float32 values.
func (p *Program) Stride() int {
	n := 0
	for _, a := range p.Attributes {
		n += a.Components
	}
	return n
}

// Uniform returns the declaration of the named uniform.
func (p *Program) Uniform(name string) (UniformDecl, bool) {
	for _, u := range p.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return UniformDecl{}, false
}

// VertexCount returns the vertex count per instance for a raster mode
// and whether the line-list variant is used.
func (p *Program) VertexCount(mode RasterMode) (n int, wire bool) {
	if mode == RasterWireframe && p.WireVertices > 0 {
		return p.WireVertices, true
	}
	return p.Vertices, false
}

// Uniforms is the CPU view of the uniform values a VertexFunc reads.
type Uniforms struct {
	Projection mgl32.Mat4
	Params     mgl32.Vec4
}

// Set stores a uniform by name.
func (u *Uniforms) Set(name string, value []float32) error {
	switch name {
	case UniformProjection:
		if len(value) != 16 {
			return fmt.Errorf("%w: %s needs 16 floats, got %d", ErrUnknownUniform, name, len(value))
		}
		copy(u.Projection[:], value)
	case UniformParams:
		if len(value) != 4 {
			return fmt.Errorf("%w: %s needs 4 floats, got %d", ErrUnknownUniform, name, len(value))
		}
		copy(u.Params[:], value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownUniform, name)
	}
	return nil
}

// Varying is the output of the vertex stage.
type Varying struct {
	// Position is in clip space with OpenGL depth (-w..w).
	Position mgl32.Vec4

	// Color is the vertex color for untextured programs.
	Color mgl32.Vec3

	// UV and Layer address the texture array for textured programs.
	// UV (0, 0) is the top-left texel.
	UV    mgl32.Vec2
	Layer int
}

// VertexFunc computes vertex index vertex of one instance record.
// wire selects the line-list outline variant.
type VertexFunc func(u *Uniforms, record []float32, vertex int, wire bool) Varying
