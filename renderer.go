package pointcloud

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/pointcloud/backend"
)

// Renderer rasterizes a loaded point cloud, with optional camera frustums
// and textured camera markers, into a fixed-size RGB frame.
//
// A Renderer exclusively owns its device. It is not safe for concurrent
// use: call Load, Render and Close from one goroutine, or synchronize
// externally.
type Renderer struct {
	width, height int
	opts          options

	dev       backend.Device
	pipelines [programCount]backend.Pipeline
	active    *bundle

	scratch []byte // device readback, never returned to callers
	closed  bool
}

// Stats describes the dataset currently loaded.
type Stats struct {
	Points   int
	Cameras  int
	Textured bool
}

// New creates a renderer with a width x height frame buffer on the
// configured backend (backend.NameGPU unless WithBackend says otherwise)
// and compiles the point, frustum and marker programs.
//
// New fails if the backend is not registered, if its device cannot be
// opened, or if a program does not compile; compile failures wrap a
// *backend.CompileError naming the stage.
func New(width, height int, opts ...Option) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dev, err := backend.Open(o.backend, backend.Config{Width: width, Height: height, Provider: o.provider})
	if err != nil {
		return nil, fmt.Errorf("pointcloud: open %s device: %w", o.backend, err)
	}

	r := &Renderer{
		width:   width,
		height:  height,
		opts:    o,
		dev:     dev,
		scratch: make([]byte, width*height*3),
	}
	for k := range programCount {
		p, err := dev.CreatePipeline(newProgram(k))
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("pointcloud: create %s pipeline: %w", k, err)
		}
		r.pipelines[k] = p
	}
	r.active = r.emptyBundle()

	Logger().Info("pointcloud: renderer created", "backend", dev.Name(), "width", width, "height", height)
	return r, nil
}

// Size returns the frame size fixed at construction.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// Backend returns the name of the device backend.
func (r *Renderer) Backend() string {
	if r.dev == nil {
		return ""
	}
	return r.dev.Name()
}

// Stats reports what the last successful Load uploaded.
func (r *Renderer) Stats() Stats {
	if r.active == nil {
		return Stats{}
	}
	return Stats{
		Points:   r.active.slots[programPoints].count,
		Cameras:  r.active.slots[programFrustums].count,
		Textured: r.active.slots[programMarkers].state == slotPresent,
	}
}

// Load replaces the rendered dataset.
//
// positions and colors are flat N×3 arrays (x y z, and r g b in 0..1).
// poses, when non-empty, adds one frustum per camera. textures, when
// non-empty together with poses, adds one textured marker per camera; the
// tile at index i belongs to pose i.
//
// All inputs are validated before anything is uploaded. On error the
// previously loaded dataset stays in place.
func (r *Renderer) Load(positions, colors []float32, poses []Pose, textures []Tile) error {
	if r.closed {
		return ErrClosed
	}
	if err := validateCloud(positions, colors); err != nil {
		return fmt.Errorf("pointcloud: load: %w", err)
	}
	if err := validateTiles(textures); err != nil {
		return fmt.Errorf("pointcloud: load: %w", err)
	}
	if len(poses) > 0 && len(textures) > 0 && len(poses) != len(textures) {
		return fmt.Errorf("pointcloud: load: %d poses, %d textures: %w", len(poses), len(textures), ErrTextureCount)
	}
	if len(poses) == 0 && len(textures) > 0 {
		Logger().Warn("pointcloud: textures without camera poses are ignored", "textures", len(textures))
	}

	next, err := r.build(positions, colors, poses, textures)
	if err != nil {
		next.release()
		return fmt.Errorf("pointcloud: load: %w", err)
	}
	prev := r.active
	r.active = next
	prev.release()

	st := r.Stats()
	Logger().Info("pointcloud: dataset loaded", "points", st.Points, "cameras", st.Cameras, "textured", st.Textured)
	return nil
}

func (r *Renderer) emptyBundle() *bundle {
	b := &bundle{}
	b.slots[programPoints] = slot{kind: programPoints, state: slotPresent, pipeline: r.pipelines[programPoints]}
	return b
}

// build uploads a complete bundle. On error the returned bundle holds
// whatever was created so far, for the caller to release.
func (r *Renderer) build(positions, colors []float32, poses []Pose, textures []Tile) (*bundle, error) {
	b := r.emptyBundle()

	pts := &b.slots[programPoints]
	pts.count = len(positions) / 3
	if pts.count > 0 {
		buf, err := r.dev.CreateBuffer("points", packPoints(positions, colors))
		if err != nil {
			return b, fmt.Errorf("upload point buffer: %w", err)
		}
		pts.instances = buf
	}
	Logger().Debug("pointcloud: point buffer", "points", pts.count, "bytes", pts.count*pointStride*4)

	if len(poses) == 0 {
		return b, nil
	}
	fr := &b.slots[programFrustums]
	*fr = slot{kind: programFrustums, state: slotPresent, pipeline: r.pipelines[programFrustums], count: len(poses)}
	buf, err := r.dev.CreateBuffer("frustums", packFrustums(poses))
	if err != nil {
		return b, fmt.Errorf("upload frustum buffer: %w", err)
	}
	fr.instances = buf

	if len(textures) == 0 {
		return b, nil
	}
	mk := &b.slots[programMarkers]
	*mk = slot{kind: programMarkers, state: slotPresent, pipeline: r.pipelines[programMarkers], count: len(poses)}
	levels := mipChain(textures)
	tex, err := r.dev.CreateTextureArray(&backend.TextureArrayDesc{Label: "camera tiles", Levels: levels})
	if err != nil {
		return b, fmt.Errorf("upload texture array: %w", err)
	}
	mk.texture = tex
	buf, err = r.dev.CreateBuffer("markers", packMarkers(poses))
	if err != nil {
		return b, fmt.Errorf("upload marker buffer: %w", err)
	}
	mk.instances = buf
	Logger().Debug("pointcloud: texture array", "layers", len(textures), "levels", len(levels))
	return b, nil
}

// Render draws the loaded dataset seen through intrinsics k and the
// world→camera view matrix, with near and far clip distances, and returns
// a new frame.
//
// near and far are not validated: near >= far gives a degenerate
// transform and an undefined (but cleared and correctly sized) frame.
func (r *Renderer) Render(k Intrinsics, view mgl32.Mat4, near, far float32) (*Frame, error) {
	f := NewFrame(r.width, r.height)
	if err := r.RenderInto(f, k, view, near, far); err != nil {
		return nil, err
	}
	return f, nil
}

// RenderInto is Render writing into dst, which is resized to the frame
// size if needed. The pixels are copied out of device memory; dst never
// aliases it. A nil dst returns ErrNilFrame.
func (r *Renderer) RenderInto(dst *Frame, k Intrinsics, view mgl32.Mat4, near, far float32) error {
	if r.closed {
		return ErrClosed
	}
	if dst == nil {
		return ErrNilFrame
	}
	if r.opts.viewTolerance > 0 {
		if err := CheckRotation(view.Mat3(), r.opts.viewTolerance); err != nil {
			return fmt.Errorf("pointcloud: render: %w", err)
		}
	}
	start := time.Now()

	vp := ColumnMajor(ViewProjection(k, view, r.width, r.height, near, far))
	params := []float32{float32(r.width), float32(r.height), r.opts.pointSize, r.opts.frustumScale}
	for s := range r.active.present() {
		if err := s.pipeline.SetUniform(backend.UniformProjection, vp); err != nil {
			return fmt.Errorf("pointcloud: set %s projection: %w", s.kind, err)
		}
		if err := s.pipeline.SetUniform(backend.UniformParams, params); err != nil {
			return fmt.Errorf("pointcloud: set %s params: %w", s.kind, err)
		}
	}

	if err := r.dev.BeginFrame(r.opts.clear); err != nil {
		return fmt.Errorf("pointcloud: begin frame: %w", err)
	}
	for s := range r.active.present() {
		if err := s.draw(r.dev); err != nil {
			return fmt.Errorf("pointcloud: draw %s: %w", s.kind, err)
		}
	}
	if err := r.dev.EndFrame(r.scratch); err != nil {
		return fmt.Errorf("pointcloud: read back frame: %w", err)
	}

	n := r.width * r.height * 3
	if cap(dst.Pix) < n {
		dst.Pix = make([]byte, n)
	}
	dst.Pix = dst.Pix[:n]
	dst.Width, dst.Height = r.width, r.height
	if r.dev.Origin() == backend.OriginBottomLeft {
		flipRows(dst.Pix, r.scratch, r.width, r.height)
	} else {
		copy(dst.Pix, r.scratch)
	}

	Logger().Debug("pointcloud: frame rendered", "backend", r.dev.Name(), "elapsed", time.Since(start))
	return nil
}

// Close releases the loaded dataset, the compiled pipelines and the
// device, in reverse order of creation. Close is idempotent.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.active.release()
	r.active = nil
	for i := len(r.pipelines) - 1; i >= 0; i-- {
		if r.pipelines[i] != nil {
			r.pipelines[i].Release()
			r.pipelines[i] = nil
		}
	}
	if r.dev == nil {
		return nil
	}
	err := r.dev.Close()
	r.dev = nil
	if err != nil {
		return fmt.Errorf("pointcloud: close device: %w", err)
	}
	return nil
}
