package pointcloud

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approxEq(a, b, eps float32) bool { return math.Abs(float64(a-b)) <= float64(eps) }

func TestProjectionEntries(t *testing.T) {
	k := Intrinsics{Fx: 500, Fy: 400, Cx: 300, Cy: 200}
	const w, h = 800, 600
	const n, f = 0.5, 50
	p := Projection(k, w, h, n, f)

	want := [4][4]float32{
		{2 * 500.0 / w, 0, 2*300.0/w - 1, 0},
		{0, 2 * 400.0 / h, 2*200.0/h - 1, 0},
		{0, 0, -(f + n) / (f - n), -2 * f * n / (f - n)},
		{0, 0, -1, 0},
	}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			if got := p.At(row, col); !approxEq(got, want[row][col], 1e-6) {
				t.Errorf("P[%d][%d] = %v, want %v", row, col, got, want[row][col])
			}
		}
	}
}

// pixelOf projects a world point and returns its top-down pixel
// coordinates and NDC depth.
func pixelOf(vp mgl32.Mat4, p mgl32.Vec3, w, h int) (x, y, z float32) {
	c := vp.Mul4x1(p.Vec4(1))
	ndc := c.Vec3().Mul(1 / c[3])
	return (ndc[0] + 1) / 2 * float32(w), (1 - ndc[1]) / 2 * float32(h), ndc[2]
}

func TestViewProjectionPinhole(t *testing.T) {
	const w, h = 640, 480
	k := Intrinsics{Fx: 420, Fy: 410, Cx: w / 2, Cy: h / 2}
	tests := []struct {
		name string
		p    mgl32.Vec3
	}{
		{"on axis", mgl32.Vec3{0, 0, 5}},
		{"right", mgl32.Vec3{1, 0, 5}},
		{"down", mgl32.Vec3{0, 1, 4}},
		{"up left far", mgl32.Vec3{-2, -1.5, 20}},
	}
	vp := ViewProjection(k, mgl32.Ident4(), w, h, 0.1, 100)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := pixelOf(vp, tt.p, w, h)
			wantX := k.Fx*tt.p[0]/tt.p[2] + k.Cx
			wantY := k.Fy*tt.p[1]/tt.p[2] + k.Cy
			if !approxEq(x, wantX, 1e-3) || !approxEq(y, wantY, 1e-3) {
				t.Errorf("pixel = (%v, %v), want (%v, %v)", x, y, wantX, wantY)
			}
			if z < -1 || z > 1 {
				t.Errorf("ndc depth %v outside [-1, 1]", z)
			}
		})
	}
}

func TestViewProjectionDepthMonotonic(t *testing.T) {
	vp := ViewProjection(IntrinsicsFromFOV(100, 100, 60), mgl32.Ident4(), 100, 100, 0.1, 100)
	_, _, zNear := pixelOf(vp, mgl32.Vec3{0, 0, 0.1}, 100, 100)
	_, _, zMid := pixelOf(vp, mgl32.Vec3{0, 0, 5}, 100, 100)
	_, _, zFar := pixelOf(vp, mgl32.Vec3{0, 0, 100}, 100, 100)
	if !approxEq(zNear, -1, 1e-4) || !approxEq(zFar, 1, 1e-4) {
		t.Errorf("near/far map to %v, %v; want -1, 1", zNear, zFar)
	}
	if !(zNear < zMid && zMid < zFar) {
		t.Errorf("depth not increasing: %v, %v, %v", zNear, zMid, zFar)
	}
}

func TestViewProjectionAppliesView(t *testing.T) {
	// Camera moved 2 units right: a world point at x=2 is on axis.
	view := mgl32.Translate3D(-2, 0, 0)
	vp := ViewProjection(IntrinsicsFromFOV(64, 64, 90), view, 64, 64, 0.1, 100)
	x, y, _ := pixelOf(vp, mgl32.Vec3{2, 0, 7}, 64, 64)
	if !approxEq(x, 32, 1e-4) || !approxEq(y, 32, 1e-4) {
		t.Errorf("pixel = (%v, %v), want image center", x, y)
	}
}

func TestProjectionDegenerate(t *testing.T) {
	p := Projection(IntrinsicsFromFOV(10, 10, 90), 10, 10, 1, 1)
	z := float64(p.At(2, 2))
	if !math.IsInf(z, 0) && !math.IsNaN(z) {
		t.Errorf("near == far: P[2][2] = %v, want Inf or NaN", z)
	}
}

func TestIntrinsics(t *testing.T) {
	k := IntrinsicsFromFOV(800, 600, 90)
	if !approxEq(k.Fx, 400, 1e-3) || k.Fx != k.Fy || k.Cx != 400 || k.Cy != 300 {
		t.Errorf("IntrinsicsFromFOV = %+v", k)
	}

	m := mgl32.Mat3FromRows(
		mgl32.Vec3{500, 0.5, 320},
		mgl32.Vec3{9, 510, 240},
		mgl32.Vec3{7, 8, 1},
	)
	got := IntrinsicsFromMat3(m)
	want := Intrinsics{Fx: 500, Fy: 510, Cx: 320, Cy: 240}
	if got != want {
		t.Errorf("IntrinsicsFromMat3 = %+v, want %+v", got, want)
	}
	if IntrinsicsFromMat3(want.Mat3()) != want {
		t.Error("Mat3 does not round-trip")
	}
	if want.Mat3().At(2, 2) != 1 || want.Mat3().At(0, 1) != 0 {
		t.Errorf("Mat3 = %v", want.Mat3())
	}
}

func TestColumnMajor(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	got := ColumnMajor(m)
	if len(got) != 16 {
		t.Fatalf("len = %d", len(got))
	}
	// Translation is the last column: entries 12..14.
	if got[12] != 1 || got[13] != 2 || got[14] != 3 {
		t.Errorf("translation at %v, want 1 2 3", got[12:15])
	}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			if got[col*4+row] != m.At(row, col) {
				t.Errorf("entry (%d,%d) misplaced", row, col)
			}
		}
	}
	got[0] = 42
	if m[0] == 42 {
		t.Error("ColumnMajor aliases its input")
	}
}
