package software

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// lod picks the mip level for one triangle from the ratio of the texel
// area it covers to its pixel area.
func (t *textureArray) lod(v0, v1, v2 winVert, pixelArea float32) int {
	if len(t.levels) <= 1 || pixelArea <= 0 {
		return 0
	}
	du1, dv1 := v1.uv[0]-v0.uv[0], v1.uv[1]-v0.uv[1]
	du2, dv2 := v2.uv[0]-v0.uv[0], v2.uv[1]-v0.uv[1]
	size := float32(t.levels[0].Size)
	texelArea := abs32(du1*dv2-du2*dv1) * size * size
	if texelArea <= pixelArea {
		return 0
	}
	level := int(math.Round(0.5 * math.Log2(float64(texelArea/pixelArea))))
	return clampInt(level, 0, len(t.levels)-1)
}

// sample filters one layer of a mip level bilinearly with clamp-to-edge
// addressing. Out-of-range layers clamp to the nearest layer.
func (t *textureArray) sample(layer, level int, uv mgl32.Vec2) mgl32.Vec3 {
	if len(t.levels) == 0 {
		return mgl32.Vec3{}
	}
	lvl := t.levels[clampInt(level, 0, len(t.levels)-1)]
	px := lvl.Layers[clampInt(layer, 0, len(lvl.Layers)-1)]
	s := lvl.Size

	u := clamp01(uv[0])*float32(s) - 0.5
	v := clamp01(uv[1])*float32(s) - 0.5
	x0, y0 := int(math.Floor(float64(u))), int(math.Floor(float64(v)))
	fx, fy := u-float32(x0), v-float32(y0)

	fetch := func(x, y int) mgl32.Vec3 {
		x = clampInt(x, 0, s-1)
		y = clampInt(y, 0, s-1)
		i := (y*s + x) * 3
		return mgl32.Vec3{float32(px[i]) / 255, float32(px[i+1]) / 255, float32(px[i+2]) / 255}
	}
	top := fetch(x0, y0).Mul(1 - fx).Add(fetch(x0+1, y0).Mul(fx))
	bottom := fetch(x0, y0+1).Mul(1 - fx).Add(fetch(x0+1, y0+1).Mul(fx))
	return top.Mul(1 - fy).Add(bottom.Mul(fy))
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
