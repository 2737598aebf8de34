package pointcloud

import (
	"errors"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestValidateCloud(t *testing.T) {
	tests := []struct {
		name              string
		positions, colors int
		want              error
	}{
		{"empty", 0, 0, nil},
		{"matching", 6, 6, nil},
		{"positions not N×3", 5, 6, ErrShape},
		{"colors not N×3", 6, 4, ErrShape},
		{"mismatch", 9, 6, ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCloud(make([]float32, tt.positions), make([]float32, tt.colors))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPackPoints(t *testing.T) {
	got := packPoints([]float32{1, 2, 3, 4, 5, 6}, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6})
	want := []float32{1, 2, 3, 0.1, 0.2, 0.3, 4, 5, 6, 0.4, 0.5, 0.6}
	if !slices.Equal(got, want) {
		t.Errorf("packPoints = %v, want %v", got, want)
	}
	if len(got) != 2*pointStride {
		t.Errorf("stride mismatch: %d values", len(got))
	}
}

func TestPackPoses(t *testing.T) {
	rows, err := PoseFromRows([]float32{
		1, 2, 3, 10,
		4, 5, 6, 11,
		7, 8, 9, 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	poses := []Pose{rows, {Rotation: mgl32.Ident3(), Translation: mgl32.Vec3{-1, -2, -3}}}

	fr := packFrustums(poses)
	if len(fr) != 2*frustumStride {
		t.Fatalf("frustums: %d values", len(fr))
	}
	want := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if !slices.Equal(fr[:frustumStride], want) {
		t.Errorf("frustum record = %v, want row-major rotation then translation %v", fr[:frustumStride], want)
	}

	mk := packMarkers(poses)
	if len(mk) != 2*markerStride {
		t.Fatalf("markers: %d values", len(mk))
	}
	for i := range poses {
		rec := mk[i*markerStride : (i+1)*markerStride]
		if !slices.Equal(rec[:frustumStride], fr[i*frustumStride:(i+1)*frustumStride]) {
			t.Errorf("marker %d pose differs from frustum record", i)
		}
		if rec[12] != float32(i) {
			t.Errorf("marker %d texture id = %v", i, rec[12])
		}
	}
}

func TestPoseToWorldMatchesPack(t *testing.T) {
	p := Pose{Rotation: EulerRotation(0, 0, 90), Translation: mgl32.Vec3{1, 2, 3}}
	rec := appendPose(nil, p)
	got := poseToWorld(rec, mgl32.Vec3{1, 0, 0}, 2)
	want := p.Rotation.Mul3x1(mgl32.Vec3{2, 0, 0}).Add(p.Translation)
	if !vecNear(got, want, 1e-5) {
		t.Errorf("poseToWorld = %v, want %v", got, want)
	}
}
