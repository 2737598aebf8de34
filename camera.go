package pointcloud

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Pose is the 3×4 rotation|translation block of a camera-to-world
// transform. Camera space follows the vision convention: +x right,
// +y down, +z forward.
type Pose struct {
	Rotation    mgl32.Mat3
	Translation mgl32.Vec3
}

// PoseFromMat4 takes the upper 3×4 block of a camera-to-world matrix.
func PoseFromMat4(m mgl32.Mat4) Pose {
	return Pose{Rotation: m.Mat3(), Translation: m.Col(3).Vec3()}
}

// PoseFromRows reads a row-major 3×4 (12 values) or 4×4 (16 values)
// camera-to-world matrix. Only the 3×4 block is used.
func PoseFromRows(v []float32) (Pose, error) {
	if len(v) != 12 && len(v) != 16 {
		return Pose{}, fmt.Errorf("%w: got %d values", ErrPoseShape, len(v))
	}
	return Pose{
		Rotation: mgl32.Mat3FromRows(
			mgl32.Vec3{v[0], v[1], v[2]},
			mgl32.Vec3{v[4], v[5], v[6]},
			mgl32.Vec3{v[8], v[9], v[10]},
		),
		Translation: mgl32.Vec3{v[3], v[7], v[11]},
	}, nil
}

// Mat4 returns the pose as a camera-to-world matrix.
func (p Pose) Mat4() mgl32.Mat4 {
	r := p.Rotation
	t := p.Translation
	return mgl32.Mat4FromRows(
		mgl32.Vec4{r.At(0, 0), r.At(0, 1), r.At(0, 2), t[0]},
		mgl32.Vec4{r.At(1, 0), r.At(1, 1), r.At(1, 2), t[1]},
		mgl32.Vec4{r.At(2, 0), r.At(2, 1), r.At(2, 2), t[2]},
		mgl32.Vec4{0, 0, 0, 1},
	)
}

// EulerRotation returns the rotation for extrinsic x-y-z Euler angles in
// degrees: roll about x first, then pitch about y, then yaw about z
// (R = Rz·Ry·Rx).
func EulerRotation(rollDeg, pitchDeg, yawDeg float32) mgl32.Mat3 {
	rx := mgl32.Rotate3DX(mgl32.DegToRad(rollDeg))
	ry := mgl32.Rotate3DY(mgl32.DegToRad(pitchDeg))
	rz := mgl32.Rotate3DZ(mgl32.DegToRad(yawDeg))
	return rz.Mul3(ry).Mul3(rx)
}

// ViewFromEuler builds a world→camera view matrix whose rotation block is
// EulerRotation(roll, pitch, yaw) and whose translation is (x, y, z).
func ViewFromEuler(rollDeg, pitchDeg, yawDeg, x, y, z float32) mgl32.Mat4 {
	return Pose{Rotation: EulerRotation(rollDeg, pitchDeg, yawDeg), Translation: mgl32.Vec3{x, y, z}}.Mat4()
}

// CheckRotation reports ErrInvalidView unless r is orthonormal with
// determinant +1, within tol per entry of RᵀR - I and of det - 1.
func CheckRotation(r mgl32.Mat3, tol float32) error {
	if d := r.Det(); !(abs(d-1) <= tol) {
		return fmt.Errorf("%w: determinant %g", ErrInvalidView, d)
	}
	rtr := r.Transpose().Mul3(r)
	id := mgl32.Ident3()
	for i := range rtr {
		if !(abs(rtr[i]-id[i]) <= tol) {
			return fmt.Errorf("%w: RᵀR deviates from identity by %g", ErrInvalidView, abs(rtr[i]-id[i]))
		}
	}
	return nil
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
