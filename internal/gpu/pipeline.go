//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pointcloud/backend"
)

// pipeline is a compiled program: a shader module, one bind group layout
// and a fill render pipeline, plus a line-list pipeline for programs with
// a wireframe variant. Each declared uniform has its own buffer.
type pipeline struct {
	dev  *Device
	prog *backend.Program
	refl *backend.Reflection

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	fill       hal.RenderPipeline
	wire       hal.RenderPipeline // nil unless WireVertices > 0

	uniforms  map[string]hal.Buffer
	bindGroup hal.BindGroup // untextured programs only
}

// CreatePipeline checks the program with naga, then builds the HAL
// pipeline objects at the reflected bindings.
func (d *Device) CreatePipeline(p *backend.Program) (backend.Pipeline, error) {
	if d.closed {
		return nil, backend.ErrClosed
	}
	refl, err := backend.Compile(p)
	if err != nil {
		return nil, err
	}
	pl := &pipeline{dev: d, prog: p, refl: refl, uniforms: make(map[string]hal.Buffer, len(p.Uniforms))}
	if err := pl.build(); err != nil {
		pl.Release()
		return nil, fmt.Errorf("gpu: create %s pipeline: %w", p.Name, err)
	}
	slogger().Debug("gpu: pipeline created", "program", p.Name, "wire", pl.wire != nil, "textured", p.Textured)
	return pl, nil
}

func (pl *pipeline) build() error {
	dev := pl.dev.device

	shader, err := dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  pl.prog.Name,
		Source: hal.ShaderSource{WGSL: pl.prog.Source},
	})
	if err != nil {
		return &backend.CompileError{Program: pl.prog.Name, Stage: backend.StageModule, Diagnostic: err.Error()}
	}
	pl.shader = shader

	bindLayout, err := dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   pl.prog.Name + "_bind_layout",
		Entries: pl.layoutEntries(),
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	pl.bindLayout = bindLayout

	pipeLayout, err := dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            pl.prog.Name + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{pl.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	pl.pipeLayout = pipeLayout

	fill, err := pl.renderPipeline(backend.EntryVertex, gputypes.PrimitiveTopologyTriangleList)
	if err != nil {
		return fmt.Errorf("create fill pipeline: %w", err)
	}
	pl.fill = fill
	if pl.prog.WireVertices > 0 {
		wire, err := pl.renderPipeline(backend.EntryVertexWire, gputypes.PrimitiveTopologyLineList)
		if err != nil {
			return fmt.Errorf("create wire pipeline: %w", err)
		}
		pl.wire = wire
	}

	for _, u := range pl.prog.Uniforms {
		buf, err := dev.CreateBuffer(&hal.BufferDescriptor{
			Label: pl.prog.Name + "_" + u.Name,
			Size:  uniformSize(u.Floats),
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create %s uniform buffer: %w", u.Name, err)
		}
		pl.uniforms[u.Name] = buf
	}

	if !pl.prog.Textured {
		bg, err := dev.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   pl.prog.Name + "_bind",
			Layout:  pl.bindLayout,
			Entries: pl.uniformEntries(),
		})
		if err != nil {
			return fmt.Errorf("create bind group: %w", err)
		}
		pl.bindGroup = bg
	}
	return nil
}

func (pl *pipeline) layoutEntries() []gputypes.BindGroupLayoutEntry {
	stages := gputypes.ShaderStagesVertexFragment
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(pl.refl.Uniforms)+2)
	for _, u := range pl.refl.Uniforms {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding: u.Binding, Visibility: stages,
			Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	if pl.prog.Textured {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding: pl.refl.Texture.Binding, Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2DArray,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding: pl.refl.Sampler.Binding, Visibility: gputypes.ShaderStageFragment,
				Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}
	return entries
}

func (pl *pipeline) uniformEntries() []gputypes.BindGroupEntry {
	entries := make([]gputypes.BindGroupEntry, 0, len(pl.refl.Uniforms)+2)
	for _, u := range pl.refl.Uniforms {
		decl, _ := pl.prog.Uniform(u.Name)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: u.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: pl.uniforms[u.Name].NativeHandle(),
				Size:   uniformSize(decl.Floats),
			},
		})
	}
	return entries
}

// textureBindGroup creates a bind group for one draw of a textured
// program. The caller destroys it after the frame is submitted.
func (pl *pipeline) textureBindGroup(t *textureArray) (hal.BindGroup, error) {
	entries := pl.uniformEntries()
	entries = append(entries,
		gputypes.BindGroupEntry{
			Binding:  pl.refl.Texture.Binding,
			Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
		},
		gputypes.BindGroupEntry{
			Binding:  pl.refl.Sampler.Binding,
			Resource: gputypes.SamplerBinding{Sampler: pl.dev.sampler.NativeHandle()},
		},
	)
	return pl.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   pl.prog.Name + "_tex_bind",
		Layout:  pl.bindLayout,
		Entries: entries,
	})
}

func (pl *pipeline) renderPipeline(entry string, topology gputypes.PrimitiveTopology) (hal.RenderPipeline, error) {
	return pl.dev.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  pl.prog.Name + "_" + entry,
		Layout: pl.pipeLayout,
		Vertex: hal.VertexState{
			Module:     pl.shader,
			EntryPoint: entry,
			Buffers:    []gputypes.VertexBufferLayout{instanceLayout(pl.prog)},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  topology,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
		},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     pl.shader,
			EntryPoint: backend.EntryFragment,
			Targets: []gputypes.ColorTargetState{{
				Format:    colorFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
}

// instanceLayout maps the program's attributes to consecutive shader
// locations of one per-instance vertex buffer.
func instanceLayout(p *backend.Program) gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(p.Attributes))
	var offset uint64
	for i, a := range p.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         vertexFormat(a.Components),
			Offset:         offset,
			ShaderLocation: uint32(i), //nolint:gosec // few attributes
		}
		offset += uint64(a.Components) * 4 //nolint:gosec // 1..4
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    gputypes.VertexStepModeInstance,
		Attributes:  attrs,
	}
}

func vertexFormat(components int) gputypes.VertexFormat {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32
	case 2:
		return gputypes.VertexFormatFloat32x2
	case 3:
		return gputypes.VertexFormatFloat32x3
	default:
		return gputypes.VertexFormatFloat32x4
	}
}

// uniformSize rounds a uniform up to 16 bytes.
func uniformSize(floats int) uint64 {
	return (uint64(floats)*4 + 15) &^ 15 //nolint:gosec // small positive
}

func (pl *pipeline) Program() *backend.Program { return pl.prog }

// SetUniform writes the value to the uniform's buffer. Values are read
// when the frame is submitted.
func (pl *pipeline) SetUniform(name string, value []float32) error {
	decl, ok := pl.prog.Uniform(name)
	if !ok {
		return fmt.Errorf("gpu: %s: %w: %q", pl.prog.Name, backend.ErrUnknownUniform, name)
	}
	if len(value) != decl.Floats {
		return fmt.Errorf("gpu: %s: %w: %s needs %d floats, got %d", pl.prog.Name, backend.ErrUnknownUniform, name, decl.Floats, len(value))
	}
	buf := pl.uniforms[name]
	if buf == nil || pl.dev.closed {
		return backend.ErrClosed
	}
	if err := pl.dev.queue.WriteBuffer(buf, 0, float32Bytes(value)); err != nil {
		return fmt.Errorf("gpu: write %s uniform: %w", name, err)
	}
	return nil
}

// Release destroys the pipeline objects. It is safe to call more than
// once and after a partial build.
func (pl *pipeline) Release() {
	dev := pl.dev.device
	if dev == nil {
		return
	}
	if pl.bindGroup != nil {
		dev.DestroyBindGroup(pl.bindGroup)
		pl.bindGroup = nil
	}
	for name, buf := range pl.uniforms {
		dev.DestroyBuffer(buf)
		delete(pl.uniforms, name)
	}
	if pl.wire != nil {
		dev.DestroyRenderPipeline(pl.wire)
		pl.wire = nil
	}
	if pl.fill != nil {
		dev.DestroyRenderPipeline(pl.fill)
		pl.fill = nil
	}
	if pl.pipeLayout != nil {
		dev.DestroyPipelineLayout(pl.pipeLayout)
		pl.pipeLayout = nil
	}
	if pl.bindLayout != nil {
		dev.DestroyBindGroupLayout(pl.bindLayout)
		pl.bindLayout = nil
	}
	if pl.shader != nil {
		dev.DestroyShaderModule(pl.shader)
		pl.shader = nil
	}
}

// float32Bytes encodes values little-endian.
func float32Bytes(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
