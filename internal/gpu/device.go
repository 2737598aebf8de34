//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pointcloud/backend"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

const (
	colorFormat = gputypes.TextureFormatRGBA8Unorm
	depthFormat = gputypes.TextureFormatDepth32Float

	// copyPitchAlignment is the BytesPerRow alignment for texture→buffer
	// copies.
	copyPitchAlignment = 256
)

// Device renders into an off-screen RGBA8 color target with a Depth32
// depth target on a wgpu HAL device, and reads frames back through a
// mapped staging buffer.
type Device struct {
	width, height uint32

	instance hal.Instance // nil when the device is external
	device   hal.Device
	queue    hal.Queue
	external bool // shared device: don't destroy on Close
	adapter  string

	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView
	readback  hal.Buffer
	rowPitch  uint32
	sampler   hal.Sampler

	mode   backend.RasterMode
	frame  *frame // nil outside BeginFrame
	closed bool
}

var _ backend.Device = (*Device)(nil)

// Open opens a device for cfg. A provider that exposes HAL types is used
// as a shared device; otherwise the first discrete or integrated Vulkan
// adapter is opened.
func Open(cfg backend.Config) (*Device, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("gpu: invalid target size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Provider != nil {
		device, queue, err := halFromProvider(cfg.Provider)
		if err != nil {
			return nil, err
		}
		return NewFromHAL(device, queue, cfg.Width, cfg.Height)
	}

	d := &Device{width: uint32(cfg.Width), height: uint32(cfg.Height)} //nolint:gosec // checked positive
	if err := d.openVulkan(); err != nil {
		d.destroyDevice()
		return nil, err
	}
	if err := d.createTargets(); err != nil {
		_ = d.Close()
		return nil, err
	}
	slogger().Info("gpu: device opened", "adapter", d.adapter, "width", cfg.Width, "height", cfg.Height)
	return d, nil
}

// NewFromHAL creates a device on an existing HAL device and queue, which
// remain owned by the caller.
func NewFromHAL(device hal.Device, queue hal.Queue, width, height int) (*Device, error) {
	if device == nil || queue == nil {
		return nil, errors.New("gpu: nil HAL device or queue")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: invalid target size %dx%d", width, height)
	}
	d := &Device{
		width:    uint32(width),  //nolint:gosec // checked positive
		height:   uint32(height), //nolint:gosec // checked positive
		device:   device,
		queue:    queue,
		external: true,
		adapter:  "shared",
	}
	if err := d.createTargets(); err != nil {
		_ = d.Close()
		return nil, err
	}
	slogger().Debug("gpu: using shared device", "width", width, "height", height)
	return d, nil
}

// halFromProvider extracts hal.Device and hal.Queue from a provider
// implementing HalDevice() any and HalQueue() any.
func halFromProvider(provider any) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, errors.New("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, errors.New("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, errors.New("gpu: provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}

func (d *Device) openVulkan() error {
	vk, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("gpu: vulkan backend not available")
	}
	instance, err := vk.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	d.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("gpu: open device: %w", err)
	}
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapter = selected.Info.Name
	return nil
}

// createTargets allocates the color and depth attachments, the readback
// buffer and the shared sampler.
func (d *Device) createTargets() error {
	size := hal.Extent3D{Width: d.width, Height: d.height, DepthOrArrayLayers: 1}

	colorTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "pointcloud_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create color target: %w", err)
	}
	d.colorTex = colorTex
	colorView, err := d.device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{Label: "pointcloud_color_view"})
	if err != nil {
		return fmt.Errorf("gpu: create color target view: %w", err)
	}
	d.colorView = colorView

	depthTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "pointcloud_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("gpu: create depth target: %w", err)
	}
	d.depthTex = depthTex
	depthView, err := d.device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label:  "pointcloud_depth_view",
		Aspect: gputypes.TextureAspectDepthOnly,
	})
	if err != nil {
		return fmt.Errorf("gpu: create depth target view: %w", err)
	}
	d.depthView = depthView

	d.rowPitch = alignedRowPitch(d.width)
	readback, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "pointcloud_readback",
		Size:  uint64(d.rowPitch) * uint64(d.height),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create readback buffer: %w", err)
	}
	d.readback = readback

	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "pointcloud_tiles",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return fmt.Errorf("gpu: create sampler: %w", err)
	}
	d.sampler = sampler
	return nil
}

// alignedRowPitch returns the readback row size for width RGBA8 pixels.
func alignedRowPitch(width uint32) uint32 {
	return (width*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

func (d *Device) Name() string                   { return backend.NameGPU }
func (d *Device) Size() (int, int)               { return int(d.width), int(d.height) }
func (d *Device) Origin() backend.Origin         { return backend.OriginTopLeft }
func (d *Device) RasterMode() backend.RasterMode { return d.mode }

func (d *Device) SetRasterMode(m backend.RasterMode) { d.mode = m }

// Adapter returns the name of the opened adapter, or "shared".
func (d *Device) Adapter() string { return d.adapter }

// Close releases the targets and, unless it is shared, the HAL device.
// It is safe to call more than once.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.discardFrame()
	if d.device != nil {
		if d.sampler != nil {
			d.device.DestroySampler(d.sampler)
			d.sampler = nil
		}
		if d.readback != nil {
			d.device.DestroyBuffer(d.readback)
			d.readback = nil
		}
		if d.depthView != nil {
			d.device.DestroyTextureView(d.depthView)
			d.depthView = nil
		}
		if d.depthTex != nil {
			d.device.DestroyTexture(d.depthTex)
			d.depthTex = nil
		}
		if d.colorView != nil {
			d.device.DestroyTextureView(d.colorView)
			d.colorView = nil
		}
		if d.colorTex != nil {
			d.device.DestroyTexture(d.colorTex)
			d.colorTex = nil
		}
	}
	d.destroyDevice()
	return nil
}

func (d *Device) destroyDevice() {
	if !d.external && d.device != nil {
		if err := d.device.WaitIdle(); err != nil {
			slogger().Warn("gpu: wait idle on close", "err", err)
		}
		d.device.Destroy()
	}
	d.device = nil
	d.queue = nil
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
