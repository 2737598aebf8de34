package pointcloud

import (
	"iter"

	"github.com/gogpu/pointcloud/backend"
)

// slotState tags a pipeline slot as absent or present.
type slotState uint8

const (
	slotAbsent slotState = iota
	slotPresent
)

// slot is one pipeline with the per-Load resources it draws.
type slot struct {
	kind      programKind
	state     slotState
	pipeline  backend.Pipeline
	instances backend.Buffer // nil when count is 0
	count     int
	texture   backend.TextureArray
}

// bundle owns every resource created by one Load. It replaces the
// previous bundle as a whole.
type bundle struct {
	slots [programCount]slot
}

// present yields the present slots in draw order.
func (b *bundle) present() iter.Seq[*slot] {
	return func(yield func(*slot) bool) {
		for i := range b.slots {
			s := &b.slots[i]
			if s.state != slotPresent {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// release frees the bundle's buffers and textures. Pipelines are owned by
// the Renderer and survive.
func (b *bundle) release() {
	if b == nil {
		return
	}
	for i := len(b.slots) - 1; i >= 0; i-- {
		s := &b.slots[i]
		if s.texture != nil {
			s.texture.Release()
			s.texture = nil
		}
		if s.instances != nil {
			s.instances.Release()
			s.instances = nil
		}
		s.state = slotAbsent
	}
}

// draw issues the slot's draw call in its raster mode.
func (s *slot) draw(dev backend.Device) error {
	call := backend.DrawCall{Pipeline: s.pipeline, Instances: s.instances, Count: s.count, Texture: s.texture}
	return withRasterMode(dev, s.kind.drawMode(), func() error {
		return dev.Draw(call)
	})
}
