package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Entry point names every program uses.
const (
	EntryVertex     = "vs_main"
	EntryVertexWire = "vs_wire"
	EntryFragment   = "fs_main"
)

// Shader stage labels reported by CompileError.
const (
	StageModule   = "module"
	StageVertex   = "vertex"
	StageFragment = "fragment"
)

// ErrCompile is the sentinel wrapped by every CompileError.
var ErrCompile = errors.New("backend: program compile failed")

// CompileError reports a program that failed to compile, with the stage
// and the compiler's diagnostic text.
type CompileError struct {
	Program    string
	Stage      string
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("backend: compile %s (%s stage): %s", e.Program, e.Stage, e.Diagnostic)
}

// Unwrap returns ErrCompile.
func (e *CompileError) Unwrap() error { return ErrCompile }

// ResourceBinding is a bind group slot.
type ResourceBinding struct {
	Name    string
	Group   uint32
	Binding uint32
}

// Reflection is what Compile learns about a program's module.
type Reflection struct {
	// Uniforms are the declared uniform bindings, in program order.
	Uniforms []ResourceBinding

	// Texture and Sampler are set for textured programs.
	Texture *ResourceBinding
	Sampler *ResourceBinding

	// HasWire reports a vs_wire entry point.
	HasWire bool
}

// Uniform returns the binding of the named uniform.
func (r *Reflection) Uniform(name string) (ResourceBinding, bool) {
	for _, u := range r.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return ResourceBinding{}, false
}

// Compile parses, lowers and validates a program's WGSL with naga and
// checks it against the program description: entry points, the
// mandatory projection uniform, every declared uniform, and the texture
// bindings of textured programs.
func Compile(p *Program) (*Reflection, error) {
	fail := func(stage, format string, args ...any) error {
		return &CompileError{Program: p.Name, Stage: stage, Diagnostic: fmt.Sprintf(format, args...)}
	}

	ast, err := naga.Parse(p.Source)
	if err != nil {
		return nil, fail(StageModule, "%v", err)
	}
	module, err := naga.LowerWithSource(ast, p.Source)
	if err != nil {
		return nil, fail(StageModule, "%v", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fail(StageModule, "%v", err)
	}
	if len(verrs) > 0 {
		return nil, fail(stageOf(verrs[0].Function), "%s", verrs[0].Error())
	}

	refl := &Reflection{}
	var hasVertex, hasFragment bool
	for _, ep := range module.EntryPoints {
		switch {
		case ep.Name == EntryVertex && ep.Stage == ir.StageVertex:
			hasVertex = true
		case ep.Name == EntryVertexWire && ep.Stage == ir.StageVertex:
			refl.HasWire = true
		case ep.Name == EntryFragment && ep.Stage == ir.StageFragment:
			hasFragment = true
		}
	}
	if !hasVertex {
		return nil, fail(StageVertex, "missing @vertex entry point %q", EntryVertex)
	}
	if !hasFragment {
		return nil, fail(StageFragment, "missing @fragment entry point %q", EntryFragment)
	}
	if p.WireVertices > 0 && !refl.HasWire {
		return nil, fail(StageVertex, "program declares %d outline vertices but has no %q entry point", p.WireVertices, EntryVertexWire)
	}

	if _, ok := p.Uniform(UniformProjection); !ok {
		return nil, fail(StageVertex, "program does not declare the %q uniform", UniformProjection)
	}
	for _, decl := range p.Uniforms {
		g := findGlobal(module, decl.Name)
		if g == nil || g.Space != ir.SpaceUniform || g.Binding == nil {
			return nil, fail(StageVertex, "no uniform binding named %q", decl.Name)
		}
		refl.Uniforms = append(refl.Uniforms, ResourceBinding{Name: decl.Name, Group: g.Binding.Group, Binding: g.Binding.Binding})
	}

	for i := range module.GlobalVariables {
		g := &module.GlobalVariables[i]
		if g.Space != ir.SpaceHandle || g.Binding == nil || int(g.Type) >= len(module.Types) {
			continue
		}
		rb := &ResourceBinding{Name: g.Name, Group: g.Binding.Group, Binding: g.Binding.Binding}
		switch t := module.Types[g.Type].Inner.(type) {
		case ir.ImageType:
			if !t.Arrayed {
				return nil, fail(StageFragment, "texture %q must be a texture_2d_array", g.Name)
			}
			refl.Texture = rb
		case ir.SamplerType:
			refl.Sampler = rb
		}
	}
	if p.Textured && (refl.Texture == nil || refl.Sampler == nil) {
		return nil, fail(StageFragment, "textured program needs a texture_2d_array and a sampler")
	}
	return refl, nil
}

func findGlobal(m *ir.Module, name string) *ir.GlobalVariable {
	for i := range m.GlobalVariables {
		if m.GlobalVariables[i].Name == name {
			return &m.GlobalVariables[i]
		}
	}
	return nil
}

func stageOf(function string) string {
	switch function {
	case EntryVertex, EntryVertexWire:
		return StageVertex
	case EntryFragment:
		return StageFragment
	default:
		return StageModule
	}
}
