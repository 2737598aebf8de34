package pointcloud

import (
	"image/color"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/pointcloud/backend"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	// GPU device (requires importing github.com/gogpu/pointcloud/gpu)
//	r, err := pointcloud.New(800, 600)
//
//	// CPU reference device with larger points
//	r, err := pointcloud.New(800, 600,
//		pointcloud.WithBackend(backend.NameSoftware),
//		pointcloud.WithPointSize(5))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	backend       string
	clear         gputypes.Color
	pointSize     float32
	frustumScale  float32
	provider      gpucontext.DeviceProvider
	viewTolerance float32 // 0 disables view validation
}

// Defaults applied by New.
const (
	DefaultPointSize    = 3
	DefaultFrustumScale = 0.25
)

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		backend:      backend.NameGPU,
		clear:        gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		pointSize:    DefaultPointSize,
		frustumScale: DefaultFrustumScale,
	}
}

// WithBackend selects the device backend by registered name.
// The default is backend.NameGPU. There is no automatic fallback: if the
// named backend is not registered or fails to open, New fails.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithClearColor sets the background color every frame is cleared to.
// Alpha is ignored; frames are RGB.
func WithClearColor(c color.Color) Option {
	return func(o *options) {
		r, g, b, _ := c.RGBA()
		o.clear = gputypes.Color{R: float64(r) / 0xffff, G: float64(g) / 0xffff, B: float64(b) / 0xffff, A: 1}
	}
}

// WithPointSize sets the point sprite size in pixels. Values below 1 are
// raised to 1.
func WithPointSize(px float32) Option {
	return func(o *options) {
		o.pointSize = max(px, 1)
	}
}

// WithFrustumScale sets the depth, in world units, of the frustum and
// marker geometry drawn for each camera pose.
func WithFrustumScale(s float32) Option {
	return func(o *options) {
		if s > 0 {
			o.frustumScale = s
		}
	}
}

// WithDeviceProvider shares an existing GPU device with the gpu backend
// instead of opening a new one. The provider must also implement
// HalDevice() any and HalQueue() any returning wgpu HAL types.
// Other backends ignore it.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithViewValidation makes Render reject view matrices whose rotation
// block is not orthonormal with determinant +1, within tol per entry.
// Validation is off by default.
func WithViewValidation(tol float32) Option {
	return func(o *options) {
		o.viewTolerance = tol
	}
}
