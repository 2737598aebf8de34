package pointcloud

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/pointcloud/backend"
)

// programKind indexes the pipeline slots in draw order.
type programKind int

const (
	programPoints programKind = iota
	programFrustums
	programMarkers

	programCount
)

// String returns the program name.
func (k programKind) String() string {
	switch k {
	case programPoints:
		return "points"
	case programFrustums:
		return "frustums"
	case programMarkers:
		return "markers"
	default:
		return "unknown"
	}
}

// drawMode is the raster mode each program is drawn in.
func (k programKind) drawMode() backend.RasterMode {
	if k == programFrustums {
		return backend.RasterWireframe
	}
	return backend.RasterFill
}

// Record layouts, in float32 values.
const (
	pointStride   = 6  // in_vert, in_color
	frustumStride = 12 // in_row1..3, in_vert
	markerStride  = 13 // frustum record + in_texture_id
)

// Frustum template in camera space (vision convention, +z forward),
// scaled by the frustum scale: apex at the camera center, base at z = 1.
const (
	frustumHalfWidth  = 0.5
	frustumHalfHeight = 0.375
)

var (
	frustumApex = mgl32.Vec3{0, 0, 0}
	frustumBase = [4]mgl32.Vec3{
		{-frustumHalfWidth, -frustumHalfHeight, 1},
		{frustumHalfWidth, -frustumHalfHeight, 1},
		{frustumHalfWidth, frustumHalfHeight, 1},
		{-frustumHalfWidth, frustumHalfHeight, 1},
	}

	// frustumTriangles is four side faces and the base, as a triangle list.
	frustumTriangles = [18]mgl32.Vec3{
		frustumApex, frustumBase[0], frustumBase[1],
		frustumApex, frustumBase[1], frustumBase[2],
		frustumApex, frustumBase[2], frustumBase[3],
		frustumApex, frustumBase[3], frustumBase[0],
		frustumBase[0], frustumBase[2], frustumBase[1],
		frustumBase[0], frustumBase[3], frustumBase[2],
	}

	// frustumEdges is the eight pyramid edges, as a line list.
	frustumEdges = [16]mgl32.Vec3{
		frustumApex, frustumBase[0],
		frustumApex, frustumBase[1],
		frustumApex, frustumBase[2],
		frustumApex, frustumBase[3],
		frustumBase[0], frustumBase[1],
		frustumBase[1], frustumBase[2],
		frustumBase[2], frustumBase[3],
		frustumBase[3], frustumBase[0],
	}

	frustumColor = mgl32.Vec3{1, 0, 0}

	// markerQuad covers the frustum base; UV (0,0) is the tile's top-left
	// texel, which sits at -y (up) in camera space.
	markerQuad = [6]mgl32.Vec3{
		frustumBase[0], frustumBase[1], frustumBase[2],
		frustumBase[0], frustumBase[2], frustumBase[3],
	}
	markerUV = [6]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 0}, {1, 1}, {0, 1}}

	// spriteCorners expands a point to a square of point_size pixels.
	spriteCorners = [6]mgl32.Vec2{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}
)

var sharedUniforms = []backend.UniformDecl{
	{Name: backend.UniformProjection, Floats: 16},
	{Name: backend.UniformParams, Floats: 4},
}

// newProgram returns the program description for a slot.
func newProgram(k programKind) *backend.Program {
	switch k {
	case programPoints:
		return &backend.Program{
			Name:   k.String(),
			Source: pointShader(),
			Attributes: []backend.Attribute{
				{Name: "in_vert", Components: 3},
				{Name: "in_color", Components: 3},
			},
			Uniforms: sharedUniforms,
			Vertices: len(spriteCorners),
			Vertex:   pointVertex,
		}
	case programFrustums:
		return &backend.Program{
			Name:         k.String(),
			Source:       frustumShader(),
			Attributes:   poseAttributes(),
			Uniforms:     sharedUniforms,
			Vertices:     len(frustumTriangles),
			WireVertices: len(frustumEdges),
			Vertex:       frustumVertex,
		}
	case programMarkers:
		return &backend.Program{
			Name:       k.String(),
			Source:     markerShader(),
			Attributes: append(poseAttributes(), backend.Attribute{Name: "in_texture_id", Components: 1}),
			Uniforms:   sharedUniforms,
			Vertices:   len(markerQuad),
			Textured:   true,
			Vertex:     markerVertex,
		}
	default:
		return nil
	}
}

func poseAttributes() []backend.Attribute {
	return []backend.Attribute{
		{Name: "in_row1", Components: 3},
		{Name: "in_row2", Components: 3},
		{Name: "in_row3", Components: 3},
		{Name: "in_vert", Components: 3},
	}
}

// pointVertex is the CPU form of the point program's vs_main.
func pointVertex(u *backend.Uniforms, rec []float32, vertex int, _ bool) backend.Varying {
	clip := u.Projection.Mul4x1(mgl32.Vec4{rec[0], rec[1], rec[2], 1})
	c := spriteCorners[vertex]
	size := u.Params[2]
	clip[0] += c[0] * size * 2 / u.Params[0] * clip[3]
	clip[1] += c[1] * size * 2 / u.Params[1] * clip[3]
	return backend.Varying{Position: clip, Color: mgl32.Vec3{rec[3], rec[4], rec[5]}}
}

// frustumVertex is the CPU form of the frustum program's vs_main and
// vs_wire.
func frustumVertex(u *backend.Uniforms, rec []float32, vertex int, wire bool) backend.Varying {
	local := frustumTriangles[vertex]
	if wire {
		local = frustumEdges[vertex]
	}
	world := poseToWorld(rec, local, u.Params[3])
	return backend.Varying{
		Position: u.Projection.Mul4x1(world.Vec4(1)),
		Color:    frustumColor,
	}
}

// markerVertex is the CPU form of the marker program's vs_main.
func markerVertex(u *backend.Uniforms, rec []float32, vertex int, _ bool) backend.Varying {
	world := poseToWorld(rec, markerQuad[vertex], u.Params[3])
	return backend.Varying{
		Position: u.Projection.Mul4x1(world.Vec4(1)),
		UV:       markerUV[vertex],
		Layer:    int(rec[12] + 0.5),
	}
}

// poseToWorld maps a template vertex through the pose stored in the first
// twelve floats of a record (row-major rotation, then translation).
func poseToWorld(rec []float32, local mgl32.Vec3, scale float32) mgl32.Vec3 {
	p := local.Mul(scale)
	r1 := mgl32.Vec3{rec[0], rec[1], rec[2]}
	r2 := mgl32.Vec3{rec[3], rec[4], rec[5]}
	r3 := mgl32.Vec3{rec[6], rec[7], rec[8]}
	return mgl32.Vec3{r1.Dot(p), r2.Dot(p), r3.Dot(p)}.Add(mgl32.Vec3{rec[9], rec[10], rec[11]})
}
