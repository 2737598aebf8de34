package backend

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or cannot open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("backend: device closed")

	// ErrNotInFrame is returned by Draw and EndFrame outside BeginFrame.
	ErrNotInFrame = errors.New("backend: no frame in progress")

	// ErrForeignResource is returned when a resource created by another
	// device is passed to a draw call.
	ErrForeignResource = errors.New("backend: resource belongs to another device")

	// ErrUnknownUniform is returned by SetUniform for a name the program
	// does not declare.
	ErrUnknownUniform = errors.New("backend: unknown uniform")

	// ErrBufferTooSmall is returned when a draw references more instances
	// than its buffer holds or a readback destination is short.
	ErrBufferTooSmall = errors.New("backend: buffer too small")

	// ErrWireframeUnsupported is returned when a program is drawn in
	// wireframe mode on a device that can only outline programs with a
	// vs_wire entry point.
	ErrWireframeUnsupported = errors.New("backend: program has no wireframe variant")
)

// RasterMode selects how triangles are rasterized.
type RasterMode int

const (
	// RasterFill rasterizes triangle interiors (default).
	RasterFill RasterMode = iota

	// RasterWireframe rasterizes only primitive outlines.
	RasterWireframe
)

// String returns the raster mode name.
func (m RasterMode) String() string {
	switch m {
	case RasterFill:
		return "Fill"
	case RasterWireframe:
		return "Wireframe"
	default:
		return "Unknown"
	}
}

// Origin is the row order of a device's readback.
type Origin int

const (
	// OriginTopLeft means row 0 of the readback is the top of the image.
	OriginTopLeft Origin = iota

	// OriginBottomLeft means row 0 of the readback is the bottom of the
	// image, as in OpenGL.
	OriginBottomLeft
)

// Config configures a device at open time.
type Config struct {
	// Width and Height are the fixed target size in pixels.
	Width, Height int

	// Provider optionally supplies an existing GPU device to share.
	// Devices that cannot use it ignore it.
	Provider gpucontext.DeviceProvider
}

// Device is a fixed-size off-screen render target with the resources
// drawn into it. Depth testing (compare Less, depth write on) is always
// enabled.
//
// A Device is not safe for concurrent use.
type Device interface {
	// Name returns the backend name the device was opened under.
	Name() string

	// Size returns the target size in pixels.
	Size() (width, height int)

	// Origin reports the row order EndFrame writes.
	Origin() Origin

	// CreatePipeline compiles a program.
	CreatePipeline(p *Program) (Pipeline, error)

	// CreateBuffer uploads per-instance vertex data.
	CreateBuffer(label string, data []float32) (Buffer, error)

	// CreateTextureArray uploads a layered texture with its mip chain.
	CreateTextureArray(desc *TextureArrayDesc) (TextureArray, error)

	// RasterMode returns the current rasterization mode.
	RasterMode() RasterMode

	// SetRasterMode changes the rasterization mode for subsequent draws.
	SetRasterMode(m RasterMode)

	// BeginFrame starts a frame and clears color and depth.
	// Any frame left unfinished by a failed draw is discarded.
	BeginFrame(clear gputypes.Color) error

	// Draw records one instanced draw into the current frame.
	Draw(call DrawCall) error

	// EndFrame finishes the frame and writes the color target to dst as
	// tightly packed RGB rows in Origin order. len(dst) must be at least
	// width*height*3.
	EndFrame(dst []byte) error

	// Close releases the target and the device. Resources created from
	// the device must be released first.
	Close() error
}

// Pipeline is a compiled program.
type Pipeline interface {
	// Program returns the program the pipeline was compiled from.
	Program() *Program

	// SetUniform writes a uniform declared by the program.
	SetUniform(name string, value []float32) error

	// Release frees the pipeline's device resources.
	Release()
}

// Buffer is device-resident per-instance vertex data.
type Buffer interface {
	// Len returns the number of float32 values in the buffer.
	Len() int

	// Release frees the buffer.
	Release()
}

// TextureArray is a layered 2D texture with mipmaps.
type TextureArray interface {
	// Layers returns the number of layers.
	Layers() int

	// Release frees the texture.
	Release()
}

// DrawCall is one instanced draw.
type DrawCall struct {
	// Pipeline is the compiled program to draw with.
	Pipeline Pipeline

	// Instances holds Count records of the program's attribute layout.
	Instances Buffer

	// Count is the number of instances to draw.
	Count int

	// Texture is bound for textured programs and ignored otherwise.
	Texture TextureArray
}

// MipLevel is one level of a texture array's mip chain.
type MipLevel struct {
	// Size is the width and height of the level.
	Size int

	// Layers holds Size*Size*3 RGB bytes per layer, rows top-down.
	Layers [][]byte
}

// TextureArrayDesc describes a layered texture upload.
type TextureArrayDesc struct {
	Label string

	// Levels is the mip chain, largest first.
	Levels []MipLevel
}

// Layers returns the layer count of the base level.
func (d *TextureArrayDesc) Layers() int {
	if len(d.Levels) == 0 {
		return 0
	}
	return len(d.Levels[0].Layers)
}
