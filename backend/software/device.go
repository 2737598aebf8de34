// Package software implements the CPU reference device for the point-cloud
// renderer.
//
// The device executes each program's VertexFunc on the CPU, clips in clip
// space, and rasterizes triangles and lines into an RGB color buffer with a
// float32 depth buffer. Rows are stored bottom-up, as an OpenGL default
// framebuffer would be, so readback reports backend.OriginBottomLeft.
// Output is deterministic: draws run sequentially in submission order.
//
// Importing the package registers it as backend.NameSoftware:
//
//	import _ "github.com/gogpu/pointcloud/backend/software"
package software

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/pointcloud/backend"
)

func init() {
	backend.Register(backend.NameSoftware, func(cfg backend.Config) (backend.Device, error) {
		dev, err := New(cfg.Width, cfg.Height)
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}

// Device is the CPU reference device.
type Device struct {
	width, height int

	color []byte    // RGB, bottom-up rows
	depth []float32 // window depth in [0,1], cleared to 1

	mode    backend.RasterMode
	inFrame bool
	closed  bool
}

var _ backend.Device = (*Device)(nil)

// New creates a software device with a width x height target.
func New(width, height int) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("software: invalid target size %dx%d", width, height)
	}
	return &Device{
		width:  width,
		height: height,
		color:  make([]byte, width*height*3),
		depth:  make([]float32, width*height),
	}, nil
}

func (d *Device) Name() string                   { return backend.NameSoftware }
func (d *Device) Size() (int, int)               { return d.width, d.height }
func (d *Device) Origin() backend.Origin         { return backend.OriginBottomLeft }
func (d *Device) RasterMode() backend.RasterMode { return d.mode }

func (d *Device) SetRasterMode(m backend.RasterMode) { d.mode = m }

// CreatePipeline validates the program's WGSL and keeps its VertexFunc.
func (d *Device) CreatePipeline(p *backend.Program) (backend.Pipeline, error) {
	if d.closed {
		return nil, backend.ErrClosed
	}
	if p.Vertex == nil {
		return nil, &backend.CompileError{Program: p.Name, Stage: backend.StageVertex, Diagnostic: "program has no CPU vertex function"}
	}
	if _, err := backend.Compile(p); err != nil {
		return nil, err
	}
	backend.Logger().Debug("software: pipeline created", "program", p.Name, "stride", p.Stride())
	return &pipeline{dev: d, prog: p}, nil
}

// CreateBuffer copies data into a host buffer.
func (d *Device) CreateBuffer(label string, data []float32) (backend.Buffer, error) {
	if d.closed {
		return nil, backend.ErrClosed
	}
	b := &buffer{dev: d, label: label, data: make([]float32, len(data))}
	copy(b.data, data)
	return b, nil
}

// CreateTextureArray copies the mip chain into a host texture.
func (d *Device) CreateTextureArray(desc *backend.TextureArrayDesc) (backend.TextureArray, error) {
	if d.closed {
		return nil, backend.ErrClosed
	}
	if len(desc.Levels) == 0 || desc.Layers() == 0 {
		return nil, fmt.Errorf("software: texture array %q has no data", desc.Label)
	}
	t := &textureArray{dev: d, levels: make([]backend.MipLevel, len(desc.Levels))}
	for i, lvl := range desc.Levels {
		if len(lvl.Layers) != desc.Layers() {
			return nil, fmt.Errorf("software: texture array %q level %d has %d layers, want %d", desc.Label, i, len(lvl.Layers), desc.Layers())
		}
		layers := make([][]byte, len(lvl.Layers))
		for j, px := range lvl.Layers {
			if len(px) != lvl.Size*lvl.Size*3 {
				return nil, fmt.Errorf("software: texture array %q level %d layer %d: %w", desc.Label, i, j, backend.ErrBufferTooSmall)
			}
			layers[j] = append([]byte(nil), px...)
		}
		t.levels[i] = backend.MipLevel{Size: lvl.Size, Layers: layers}
	}
	return t, nil
}

// BeginFrame clears color and depth.
func (d *Device) BeginFrame(clear gputypes.Color) error {
	if d.closed {
		return backend.ErrClosed
	}
	r, g, b := unorm8(float32(clear.R)), unorm8(float32(clear.G)), unorm8(float32(clear.B))
	for i := 0; i < len(d.color); i += 3 {
		d.color[i], d.color[i+1], d.color[i+2] = r, g, b
	}
	for i := range d.depth {
		d.depth[i] = 1
	}
	d.inFrame = true
	return nil
}

// Draw rasterizes every instance of the call in order.
func (d *Device) Draw(call backend.DrawCall) error {
	if d.closed {
		return backend.ErrClosed
	}
	if !d.inFrame {
		return backend.ErrNotInFrame
	}
	pl, ok := call.Pipeline.(*pipeline)
	if !ok || pl.dev != d {
		return fmt.Errorf("software: draw pipeline: %w", backend.ErrForeignResource)
	}
	if call.Count == 0 {
		return nil
	}
	buf, ok := call.Instances.(*buffer)
	if !ok || buf.dev != d {
		return fmt.Errorf("software: draw %s instances: %w", pl.prog.Name, backend.ErrForeignResource)
	}
	stride := pl.prog.Stride()
	if call.Count*stride > len(buf.data) {
		return fmt.Errorf("software: draw %s: %d instances need %d floats, buffer %q has %d: %w",
			pl.prog.Name, call.Count, call.Count*stride, buf.label, len(buf.data), backend.ErrBufferTooSmall)
	}

	var tex *textureArray
	if pl.prog.Textured {
		tex, ok = call.Texture.(*textureArray)
		if !ok || tex.dev != d {
			return fmt.Errorf("software: draw %s texture: %w", pl.prog.Name, backend.ErrForeignResource)
		}
	}

	r := rasterizer{dev: d, prog: pl.prog, tex: tex}
	n, wire := pl.prog.VertexCount(d.mode)
	outline := d.mode == backend.RasterWireframe && !wire
	verts := make([]backend.Varying, n)
	for i := 0; i < call.Count; i++ {
		rec := buf.data[i*stride : (i+1)*stride]
		for v := range verts {
			verts[v] = pl.prog.Vertex(&pl.uniforms, rec, v, wire)
		}
		switch {
		case wire:
			for v := 0; v+1 < n; v += 2 {
				r.line(verts[v], verts[v+1])
			}
		case outline:
			for v := 0; v+2 < n; v += 3 {
				r.line(verts[v], verts[v+1])
				r.line(verts[v+1], verts[v+2])
				r.line(verts[v+2], verts[v])
			}
		default:
			for v := 0; v+2 < n; v += 3 {
				r.triangle(verts[v], verts[v+1], verts[v+2])
			}
		}
	}
	return nil
}

// EndFrame copies the bottom-up color buffer to dst.
func (d *Device) EndFrame(dst []byte) error {
	if d.closed {
		return backend.ErrClosed
	}
	if !d.inFrame {
		return backend.ErrNotInFrame
	}
	d.inFrame = false
	if len(dst) < len(d.color) {
		return fmt.Errorf("software: readback needs %d bytes, got %d: %w", len(d.color), len(dst), backend.ErrBufferTooSmall)
	}
	copy(dst, d.color)
	return nil
}

// Close drops the target buffers. It is safe to call more than once.
func (d *Device) Close() error {
	d.closed = true
	d.inFrame = false
	d.color = nil
	d.depth = nil
	return nil
}

type pipeline struct {
	dev      *Device
	prog     *backend.Program
	uniforms backend.Uniforms
}

func (p *pipeline) Program() *backend.Program { return p.prog }

func (p *pipeline) SetUniform(name string, value []float32) error {
	if _, ok := p.prog.Uniform(name); !ok {
		return fmt.Errorf("software: %s: %w: %q", p.prog.Name, backend.ErrUnknownUniform, name)
	}
	return p.uniforms.Set(name, value)
}

func (p *pipeline) Release() {}

type buffer struct {
	dev   *Device
	label string
	data  []float32
}

func (b *buffer) Len() int { return len(b.data) }
func (b *buffer) Release() { b.data = nil }

type textureArray struct {
	dev    *Device
	levels []backend.MipLevel
}

func (t *textureArray) Layers() int {
	if len(t.levels) == 0 {
		return 0
	}
	return len(t.levels[0].Layers)
}

func (t *textureArray) Release() { t.levels = nil }
