package pointcloud

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/pointcloud/backend"
)

func TestProgramsCompile(t *testing.T) {
	for k := range programCount {
		t.Run(k.String(), func(t *testing.T) {
			p := newProgram(k)
			refl, err := backend.Compile(p)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if len(refl.Uniforms) != len(sharedUniforms) {
				t.Errorf("%d uniforms reflected, want %d", len(refl.Uniforms), len(sharedUniforms))
			}
			if refl.HasWire != (p.WireVertices > 0) {
				t.Errorf("HasWire = %v, WireVertices = %d", refl.HasWire, p.WireVertices)
			}
			if p.Textured && (refl.Texture == nil || refl.Sampler == nil) {
				t.Error("textured program without texture bindings")
			}
		})
	}
	if newProgram(programCount) != nil {
		t.Error("newProgram of an unknown kind is not nil")
	}
}

func TestProgramStrides(t *testing.T) {
	tests := []struct {
		kind   programKind
		stride int
	}{
		{programPoints, pointStride},
		{programFrustums, frustumStride},
		{programMarkers, markerStride},
	}
	for _, tt := range tests {
		if got := newProgram(tt.kind).Stride(); got != tt.stride {
			t.Errorf("%s stride = %d, want %d", tt.kind, got, tt.stride)
		}
	}
}

func testUniforms(w, h, size, scale float32) *backend.Uniforms {
	return &backend.Uniforms{Projection: mgl32.Ident4(), Params: mgl32.Vec4{w, h, size, scale}}
}

func TestPointVertexSprite(t *testing.T) {
	u := testUniforms(100, 50, 10, 1)
	rec := []float32{0.2, -0.4, 0.5, 1, 0.5, 0.25}
	var minX, maxX, minY, maxY float32 = 1, -1, 1, -1
	for v := range len(spriteCorners) {
		out := pointVertex(u, rec, v, false)
		if out.Color != (mgl32.Vec3{1, 0.5, 0.25}) {
			t.Errorf("vertex %d color = %v", v, out.Color)
		}
		minX, maxX = min(minX, out.Position[0]), max(maxX, out.Position[0])
		minY, maxY = min(minY, out.Position[1]), max(maxY, out.Position[1])
	}
	// 10px in NDC: 20/width by 20/height, centered on the point.
	if !approxEq(maxX-minX, 0.2, 1e-6) || !approxEq(maxY-minY, 0.4, 1e-6) {
		t.Errorf("sprite extent = %v × %v, want 0.2 × 0.4", maxX-minX, maxY-minY)
	}
	if !approxEq((maxX+minX)/2, 0.2, 1e-6) || !approxEq((maxY+minY)/2, -0.4, 1e-6) {
		t.Error("sprite not centered on the point")
	}
}

func TestFrustumVertex(t *testing.T) {
	u := testUniforms(1, 1, 1, 2)
	rec := appendPose(nil, Pose{Rotation: mgl32.Ident3(), Translation: mgl32.Vec3{0, 0, 1}})

	apex := frustumVertex(u, rec, 0, true)
	if apex.Position != (mgl32.Vec4{0, 0, 1, 1}) {
		t.Errorf("apex = %v, want the camera center", apex.Position)
	}
	if apex.Color != frustumColor {
		t.Errorf("color = %v", apex.Color)
	}
	corner := frustumVertex(u, rec, 1, true)
	want := mgl32.Vec4{-2 * frustumHalfWidth, -2 * frustumHalfHeight, 3, 1}
	if corner.Position != want {
		t.Errorf("first base corner = %v, want %v", corner.Position, want)
	}

	p := newProgram(programFrustums)
	if n, wire := p.VertexCount(backend.RasterWireframe); n != len(frustumEdges) || !wire {
		t.Errorf("wireframe VertexCount = %d, %v", n, wire)
	}
	if n, wire := p.VertexCount(backend.RasterFill); n != len(frustumTriangles) || wire {
		t.Errorf("fill VertexCount = %d, %v", n, wire)
	}
}

func TestMarkerVertex(t *testing.T) {
	u := testUniforms(1, 1, 1, 1)
	rec := append(appendPose(nil, Pose{Rotation: mgl32.Ident3()}), 2)
	for v := range len(markerQuad) {
		out := markerVertex(u, rec, v, false)
		if out.Layer != 2 {
			t.Errorf("vertex %d layer = %d, want 2", v, out.Layer)
		}
		if out.UV != markerUV[v] {
			t.Errorf("vertex %d uv = %v", v, out.UV)
		}
		if out.Position[2] != 1 {
			t.Errorf("vertex %d not on the frustum base: %v", v, out.Position)
		}
	}
	// The top-left texel sits on the upper (-y) edge.
	if markerQuad[0][1] >= 0 || markerUV[0] != (mgl32.Vec2{0, 0}) {
		t.Error("uv origin is not at the upper-left corner")
	}
}

func TestWGSLFloat(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{1, "1.0"},
		{-0.5, "-0.5"},
		{0.375, "0.375"},
		{0, "0.0"},
	}
	for _, tt := range tests {
		if got := wgslFloat(tt.in); got != tt.want {
			t.Errorf("wgslFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
