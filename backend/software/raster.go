package software

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/pointcloud/backend"
)

// rasterizer draws the primitives of one draw call.
type rasterizer struct {
	dev  *Device
	prog *backend.Program
	tex  *textureArray
}

// winVert is a vertex after the perspective divide and viewport transform.
// Attributes are stored divided by w for perspective-correct interpolation.
type winVert struct {
	x, y, z float32 // window coordinates, y up, z in [0,1]
	invW    float32
	color   mgl32.Vec3 // color / w
	uvw     mgl32.Vec2 // uv / w
	uv      mgl32.Vec2
	layer   int
}

// clip plane distances: w±x, w±y, w±z.
const clipPlanes = 6

func planeDist(p mgl32.Vec4, plane int) float32 {
	switch plane {
	case 0:
		return p[3] + p[0]
	case 1:
		return p[3] - p[0]
	case 2:
		return p[3] + p[1]
	case 3:
		return p[3] - p[1]
	case 4:
		return p[3] + p[2]
	default:
		return p[3] - p[2]
	}
}

func lerpVarying(a, b backend.Varying, t float32) backend.Varying {
	return backend.Varying{
		Position: a.Position.Add(b.Position.Sub(a.Position).Mul(t)),
		Color:    a.Color.Add(b.Color.Sub(a.Color).Mul(t)),
		UV:       a.UV.Add(b.UV.Sub(a.UV).Mul(t)),
		Layer:    a.Layer,
	}
}

func finite(v backend.Varying) bool {
	for _, c := range v.Position {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// clipPolygon clips a convex polygon against the clip volume
// (Sutherland-Hodgman over the six planes).
func clipPolygon(poly []backend.Varying) []backend.Varying {
	out := make([]backend.Varying, 0, len(poly)+clipPlanes)
	for plane := 0; plane < clipPlanes && len(poly) > 0; plane++ {
		out = out[:0]
		for i := range poly {
			a := poly[i]
			b := poly[(i+1)%len(poly)]
			da, db := planeDist(a.Position, plane), planeDist(b.Position, plane)
			if da >= 0 {
				out = append(out, a)
			}
			if (da >= 0) != (db >= 0) {
				out = append(out, lerpVarying(a, b, da/(da-db)))
			}
		}
		poly, out = out, poly
	}
	return poly
}

// clipLine clips a segment against the clip volume (Liang-Barsky).
func clipLine(a, b backend.Varying) (backend.Varying, backend.Varying, bool) {
	t0, t1 := float32(0), float32(1)
	for plane := 0; plane < clipPlanes; plane++ {
		da, db := planeDist(a.Position, plane), planeDist(b.Position, plane)
		switch {
		case da < 0 && db < 0:
			return a, b, false
		case da < 0:
			t0 = max(t0, da/(da-db))
		case db < 0:
			t1 = min(t1, da/(da-db))
		}
		if t0 > t1 {
			return a, b, false
		}
	}
	return lerpVarying(a, b, t0), lerpVarying(a, b, t1), true
}

func (r *rasterizer) toWindow(v backend.Varying) winVert {
	invW := 1 / v.Position[3]
	return winVert{
		x:     (v.Position[0]*invW*0.5 + 0.5) * float32(r.dev.width),
		y:     (v.Position[1]*invW*0.5 + 0.5) * float32(r.dev.height),
		z:     v.Position[2]*invW*0.5 + 0.5,
		invW:  invW,
		color: v.Color.Mul(invW),
		uvw:   v.UV.Mul(invW),
		uv:    v.UV,
		layer: v.Layer,
	}
}

func (r *rasterizer) triangle(a, b, c backend.Varying) {
	if !finite(a) || !finite(b) || !finite(c) {
		return
	}
	poly := clipPolygon([]backend.Varying{a, b, c})
	if len(poly) < 3 {
		return
	}
	ws := make([]winVert, len(poly))
	for i, v := range poly {
		ws[i] = r.toWindow(v)
	}
	for i := 1; i+1 < len(ws); i++ {
		r.fill(ws[0], ws[i], ws[i+1])
	}
}

// edge is positive when p lies to the left of a->b (y up).
func edge(a, b winVert, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether a->b is a top or left edge of a
// counter-clockwise triangle in y-up window space.
func topLeft(a, b winVert) bool {
	return b.y < a.y || (a.y == b.y && b.x < a.x)
}

func covers(w float32, a, b winVert) bool {
	return w > 0 || (w == 0 && topLeft(a, b))
}

func (r *rasterizer) fill(v0, v1, v2 winVert) {
	area := edge(v0, v1, v2.x, v2.y)
	if area == 0 || area != area {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	minX := r.pixelMin(min(v0.x, v1.x, v2.x), r.dev.width)
	maxX := r.pixelMax(max(v0.x, v1.x, v2.x), r.dev.width)
	minY := r.pixelMin(min(v0.y, v1.y, v2.y), r.dev.height)
	maxY := r.pixelMax(max(v0.y, v1.y, v2.y), r.dev.height)

	lod := 0
	if r.tex != nil {
		lod = r.tex.lod(v0, v1, v2, area)
	}

	inv := 1 / area
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(v1, v2, px, py)
			w1 := edge(v2, v0, px, py)
			w2 := edge(v0, v1, px, py)
			if !covers(w0, v1, v2) || !covers(w1, v2, v0) || !covers(w2, v0, v1) {
				continue
			}
			b0, b1, b2 := w0*inv, w1*inv, w2*inv
			z := b0*v0.z + b1*v1.z + b2*v2.z
			if !r.depthTest(x, y, z) {
				continue
			}
			iw := b0*v0.invW + b1*v1.invW + b2*v2.invW
			c := v0.color.Mul(b0).Add(v1.color.Mul(b1)).Add(v2.color.Mul(b2)).Mul(1 / iw)
			uv := v0.uvw.Mul(b0).Add(v1.uvw.Mul(b1)).Add(v2.uvw.Mul(b2)).Mul(1 / iw)
			r.shade(x, y, c, uv, v0.layer, lod)
		}
	}
}

func (r *rasterizer) line(a, b backend.Varying) {
	if !finite(a) || !finite(b) {
		return
	}
	a, b, ok := clipLine(a, b)
	if !ok {
		return
	}
	wa, wb := r.toWindow(a), r.toWindow(b)
	dx, dy := wb.x-wa.x, wb.y-wa.y
	steps := int(math.Ceil(float64(max(abs32(dx), abs32(dy)))))
	for i := 0; i <= steps; i++ {
		t := float32(0)
		if steps > 0 {
			t = float32(i) / float32(steps)
		}
		x := clampInt(int(math.Floor(float64(wa.x+dx*t))), 0, r.dev.width-1)
		y := clampInt(int(math.Floor(float64(wa.y+dy*t))), 0, r.dev.height-1)
		z := wa.z + (wb.z-wa.z)*t
		if !r.depthTest(x, y, z) {
			continue
		}
		iw := wa.invW + (wb.invW-wa.invW)*t
		c := wa.color.Add(wb.color.Sub(wa.color).Mul(t)).Mul(1 / iw)
		uv := wa.uvw.Add(wb.uvw.Sub(wa.uvw).Mul(t)).Mul(1 / iw)
		r.shade(x, y, c, uv, wa.layer, 0)
	}
}

// pixelMin and pixelMax return the first and last pixel whose center lies
// in [lo, hi], clamped to the target.
func (r *rasterizer) pixelMin(lo float32, size int) int {
	return clampInt(int(math.Ceil(float64(lo)-0.5)), 0, size-1)
}

func (r *rasterizer) pixelMax(hi float32, size int) int {
	return clampInt(int(math.Floor(float64(hi)-0.5)), 0, size-1)
}

// depthTest applies compare Less against the depth buffer and writes on
// pass. y counts rows from the bottom.
func (r *rasterizer) depthTest(x, y int, z float32) bool {
	if z < 0 || z > 1 {
		return false
	}
	i := y*r.dev.width + x
	if z >= r.dev.depth[i] {
		return false
	}
	r.dev.depth[i] = z
	return true
}

func (r *rasterizer) shade(x, y int, c mgl32.Vec3, uv mgl32.Vec2, layer, lod int) {
	if r.prog.Textured && r.tex != nil {
		c = r.tex.sample(layer, lod, uv)
	}
	i := (y*r.dev.width + x) * 3
	r.dev.color[i] = unorm8(c[0])
	r.dev.color[i+1] = unorm8(c[1])
	r.dev.color[i+2] = unorm8(c[2])
}

func unorm8(v float32) byte {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
