package pointcloud

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Intrinsics holds the pinhole camera parameters of a 3×3 matrix K:
// focal lengths fx, fy and principal point cx, cy, in pixels.
type Intrinsics struct {
	Fx, Fy float32
	Cx, Cy float32
}

// IntrinsicsFromMat3 reads fx = K[0][0], fy = K[1][1], cx = K[0][2] and
// cy = K[1][2]. Other entries are ignored.
func IntrinsicsFromMat3(k mgl32.Mat3) Intrinsics {
	return Intrinsics{Fx: k.At(0, 0), Fy: k.At(1, 1), Cx: k.At(0, 2), Cy: k.At(1, 2)}
}

// IntrinsicsFromFOV builds intrinsics for a horizontal field of view in
// degrees, with square pixels and the principal point at the image center.
func IntrinsicsFromFOV(width, height int, fovDeg float32) Intrinsics {
	f := float32(float64(width) / (2 * math.Tan(float64(mgl32.DegToRad(fovDeg))/2)))
	return Intrinsics{Fx: f, Fy: f, Cx: float32(width) / 2, Cy: float32(height) / 2}
}

// Mat3 returns K.
func (k Intrinsics) Mat3() mgl32.Mat3 {
	return mgl32.Mat3FromRows(
		mgl32.Vec3{k.Fx, 0, k.Cx},
		mgl32.Vec3{0, k.Fy, k.Cy},
		mgl32.Vec3{0, 0, 1},
	)
}

// visionToGL flips y and z: vision cameras look down +z with y down,
// OpenGL cameras look down -z with y up.
var visionToGL = mgl32.Diag4(mgl32.Vec4{1, -1, -1, 1})

// Projection returns the OpenGL-convention projection for intrinsics k on
// a width x height image with near and far clip distances:
//
//	[2fx/W  0      2cx/W-1       0         ]
//	[0      2fy/H  2cy/H-1       0         ]
//	[0      0      -(f+n)/(f-n)  -2fn/(f-n)]
//	[0      0      -1            0         ]
//
// near and far are not validated; near >= far yields Inf or NaN entries.
func Projection(k Intrinsics, width, height int, near, far float32) mgl32.Mat4 {
	w, h := float32(width), float32(height)
	return mgl32.Mat4FromRows(
		mgl32.Vec4{2 * k.Fx / w, 0, 2*k.Cx/w - 1, 0},
		mgl32.Vec4{0, 2 * k.Fy / h, 2*k.Cy/h - 1, 0},
		mgl32.Vec4{0, 0, -(far + near) / (far - near), -2 * far * near / (far - near)},
		mgl32.Vec4{0, 0, -1, 0},
	)
}

// ViewProjection composes projection · diag(1,-1,-1,1) · view, mapping
// world points through a vision-convention world→camera view matrix to
// clip space.
func ViewProjection(k Intrinsics, view mgl32.Mat4, width, height int, near, far float32) mgl32.Mat4 {
	return Projection(k, width, height, near, far).Mul4(visionToGL).Mul4(view)
}

// ColumnMajor returns m in the column-major order shader uniforms expect,
// which is the transpose of its row-major layout. mgl32 already stores
// matrices column-major.
func ColumnMajor(m mgl32.Mat4) []float32 {
	out := make([]float32, 16)
	copy(out, m[:])
	return out
}
