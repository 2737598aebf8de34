//go:build !nogpu

package gpu

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pointcloud/backend"
)

// frame collects the draws of one BeginFrame/EndFrame pair. Encoding
// happens at EndFrame, in one render pass.
type frame struct {
	clear     gputypes.Color
	draws     []recordedDraw
	transient []hal.BindGroup
}

type recordedDraw struct {
	pipeline  hal.RenderPipeline
	bindGroup hal.BindGroup
	instances hal.Buffer
	vertices  uint32
	count     uint32
}

// BeginFrame starts recording. A frame left open by a failed draw is
// discarded.
func (d *Device) BeginFrame(clear gputypes.Color) error {
	if d.closed {
		return backend.ErrClosed
	}
	d.discardFrame()
	d.frame = &frame{clear: clear}
	return nil
}

// Draw records an instanced draw with the pipeline variant selected by
// the current raster mode.
func (d *Device) Draw(call backend.DrawCall) error {
	if d.closed {
		return backend.ErrClosed
	}
	if d.frame == nil {
		return backend.ErrNotInFrame
	}
	pl, ok := call.Pipeline.(*pipeline)
	if !ok || pl.dev != d {
		return fmt.Errorf("gpu: draw pipeline: %w", backend.ErrForeignResource)
	}
	if call.Count == 0 {
		return nil
	}
	buf, ok := call.Instances.(*buffer)
	if !ok || buf.dev != d {
		return fmt.Errorf("gpu: draw %s instances: %w", pl.prog.Name, backend.ErrForeignResource)
	}
	stride := pl.prog.Stride()
	if call.Count*stride > buf.n {
		return fmt.Errorf("gpu: draw %s: %d instances need %d floats, buffer %q has %d: %w",
			pl.prog.Name, call.Count, call.Count*stride, buf.label, buf.n, backend.ErrBufferTooSmall)
	}

	n, wire := pl.prog.VertexCount(d.mode)
	rp := pl.fill
	switch {
	case wire:
		rp = pl.wire
	case d.mode == backend.RasterWireframe:
		return fmt.Errorf("gpu: draw %s: %w", pl.prog.Name, backend.ErrWireframeUnsupported)
	}

	bg := pl.bindGroup
	if pl.prog.Textured {
		tex, ok := call.Texture.(*textureArray)
		if !ok || tex.dev != d {
			return fmt.Errorf("gpu: draw %s texture: %w", pl.prog.Name, backend.ErrForeignResource)
		}
		g, err := pl.textureBindGroup(tex)
		if err != nil {
			return fmt.Errorf("gpu: draw %s: create bind group: %w", pl.prog.Name, err)
		}
		d.frame.transient = append(d.frame.transient, g)
		bg = g
	}

	d.frame.draws = append(d.frame.draws, recordedDraw{
		pipeline:  rp,
		bindGroup: bg,
		instances: buf.buf,
		vertices:  uint32(n),          //nolint:gosec // template size
		count:     uint32(call.Count), //nolint:gosec // bounded by buffer
	})
	return nil
}

// EndFrame encodes and submits the frame, waits for the device, and
// copies the color target into dst as tightly packed top-down RGB.
func (d *Device) EndFrame(dst []byte) error {
	if d.closed {
		return backend.ErrClosed
	}
	if d.frame == nil {
		return backend.ErrNotInFrame
	}
	defer d.discardFrame()
	w, h := d.width, d.height
	if need := int(w) * int(h) * 3; len(dst) < need {
		return fmt.Errorf("gpu: readback needs %d bytes, got %d: %w", need, len(dst), backend.ErrBufferTooSmall)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "pointcloud_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("pointcloud_frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "pointcloud_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       d.colorView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: d.frame.clear,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            d.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	for _, dr := range d.frame.draws {
		rp.SetPipeline(dr.pipeline)
		rp.SetBindGroup(0, dr.bindGroup, nil)
		rp.SetVertexBuffer(0, dr.instances, 0)
		rp.Draw(dr.vertices, dr.count, 0, 0)
	}
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.colorTex,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1},
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(d.colorTex, d.readback, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: d.rowPitch, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: d.colorTex, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	// Back to RenderAttachment for the next frame's pass.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.colorTex,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1},
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("gpu: wait for device: %w", err)
	}
	return d.readPixels(dst)
}

// readPixels maps the readback buffer and strips row padding and alpha.
func (d *Device) readPixels(dst []byte) error {
	size := uint64(d.rowPitch) * uint64(d.height)
	m, err := d.device.MapBuffer(d.readback, 0, size)
	if err != nil {
		return fmt.Errorf("gpu: map readback buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(m.Ptr), size)
	w := int(d.width)
	for y := 0; y < int(d.height); y++ {
		row := src[y*int(d.rowPitch):]
		out := dst[y*w*3:]
		for x := 0; x < w; x++ {
			out[x*3] = row[x*4]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+2]
		}
	}
	if err := d.device.UnmapBuffer(d.readback); err != nil {
		return fmt.Errorf("gpu: unmap readback buffer: %w", err)
	}
	return nil
}

// discardFrame destroys per-frame bind groups and drops the recording.
func (d *Device) discardFrame() {
	if d.frame == nil {
		return
	}
	if d.device != nil {
		for _, g := range d.frame.transient {
			d.device.DestroyBindGroup(g)
		}
	}
	d.frame = nil
}
