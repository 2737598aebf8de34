//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pointcloud/backend"
)

type buffer struct {
	dev   *Device
	label string
	buf   hal.Buffer // nil for an empty buffer
	n     int
}

// CreateBuffer uploads data to a vertex buffer. Empty data yields a
// buffer with no HAL allocation.
func (d *Device) CreateBuffer(label string, data []float32) (backend.Buffer, error) {
	if d.closed {
		return nil, backend.ErrClosed
	}
	b := &buffer{dev: d, label: label, n: len(data)}
	if len(data) == 0 {
		return b, nil
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)) * 4,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %q: %w", label, err)
	}
	if err := d.queue.WriteBuffer(buf, 0, float32Bytes(data)); err != nil {
		d.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("gpu: write buffer %q: %w", label, err)
	}
	b.buf = buf
	return b, nil
}

func (b *buffer) Len() int { return b.n }

func (b *buffer) Release() {
	if b.buf != nil && b.dev.device != nil {
		b.dev.device.DestroyBuffer(b.buf)
	}
	b.buf = nil
	b.n = 0
}

type textureArray struct {
	dev    *Device
	tex    hal.Texture
	view   hal.TextureView
	layers int
}

// CreateTextureArray uploads every layer of every mip level. RGB texels
// are expanded to RGBA8 on the way.
func (d *Device) CreateTextureArray(desc *backend.TextureArrayDesc) (backend.TextureArray, error) {
	if d.closed {
		return nil, backend.ErrClosed
	}
	layers := desc.Layers()
	if len(desc.Levels) == 0 || layers == 0 {
		return nil, fmt.Errorf("gpu: texture array %q has no data", desc.Label)
	}
	base := uint32(desc.Levels[0].Size) //nolint:gosec // tile size
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: base, Height: base, DepthOrArrayLayers: uint32(layers)}, //nolint:gosec // layer count
		MipLevelCount: uint32(len(desc.Levels)),                                                    //nolint:gosec // mip count
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture array %q: %w", desc.Label, err)
	}
	t := &textureArray{dev: d, tex: tex, layers: layers}

	for level, lvl := range desc.Levels {
		if len(lvl.Layers) != layers {
			t.Release()
			return nil, fmt.Errorf("gpu: texture array %q level %d has %d layers, want %d", desc.Label, level, len(lvl.Layers), layers)
		}
		size := uint32(lvl.Size) //nolint:gosec // tile size
		for layer, px := range lvl.Layers {
			if len(px) != lvl.Size*lvl.Size*3 {
				t.Release()
				return nil, fmt.Errorf("gpu: texture array %q level %d layer %d: %w", desc.Label, level, layer, backend.ErrBufferTooSmall)
			}
			err := d.queue.WriteTexture(
				&hal.ImageCopyTexture{
					Texture:  tex,
					MipLevel: uint32(level),                  //nolint:gosec // mip index
					Origin:   hal.Origin3D{Z: uint32(layer)}, //nolint:gosec // layer index
					Aspect:   gputypes.TextureAspectAll,
				},
				rgbToRGBA(px),
				&hal.ImageDataLayout{BytesPerRow: size * 4, RowsPerImage: size},
				&hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
			)
			if err != nil {
				t.Release()
				return nil, fmt.Errorf("gpu: write texture array %q level %d layer %d: %w", desc.Label, level, layer, err)
			}
		}
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     desc.Label + "_view",
		Format:    colorFormat,
		Dimension: gputypes.TextureViewDimension2DArray,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("gpu: create texture array view %q: %w", desc.Label, err)
	}
	t.view = view
	slogger().Debug("gpu: texture array uploaded", "label", desc.Label, "layers", layers, "levels", len(desc.Levels))
	return t, nil
}

func (t *textureArray) Layers() int { return t.layers }

func (t *textureArray) Release() {
	dev := t.dev.device
	if dev == nil {
		return
	}
	if t.view != nil {
		dev.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		dev.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// rgbToRGBA expands RGB texels to opaque RGBA.
func rgbToRGBA(rgb []byte) []byte {
	n := len(rgb) / 3
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		out[i*4] = rgb[i*3]
		out[i*4+1] = rgb[i*3+1]
		out[i*4+2] = rgb[i*3+2]
		out[i*4+3] = 0xff
	}
	return out
}
