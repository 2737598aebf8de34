package pointcloud

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// shaderCommon declares the uniforms every program shares. Clip-space
// depth arrives in the OpenGL range -w..w and is remapped to the WebGPU
// range 0..w.
const shaderCommon = `
struct Params {
    viewport: vec2<f32>,
    point_size: f32,
    frustum_scale: f32,
}

@group(0) @binding(0) var<uniform> projection: mat4x4<f32>;
@group(0) @binding(1) var<uniform> params: Params;

fn to_webgpu_depth(clip: vec4<f32>) -> vec4<f32> {
    return vec4<f32>(clip.x, clip.y, (clip.z + clip.w) * 0.5, clip.w);
}

fn pose_to_world(local: vec3<f32>, row1: vec3<f32>, row2: vec3<f32>, row3: vec3<f32>, t: vec3<f32>) -> vec3<f32> {
    let p = local * params.frustum_scale;
    return vec3<f32>(dot(row1, p), dot(row2, p), dot(row3, p)) + t;
}
`

const pointShaderBody = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

@vertex
fn vs_main(
    @builtin(vertex_index) vertex_index: u32,
    @location(0) in_vert: vec3<f32>,
    @location(1) in_color: vec3<f32>
) -> VertexOutput {
    var corners = array<vec2<f32>, 6>(%s);
    let clip = projection * vec4<f32>(in_vert, 1.0);
    let offset = corners[vertex_index] * params.point_size * 2.0 / params.viewport * clip.w;
    var out: VertexOutput;
    out.position = to_webgpu_depth(vec4<f32>(clip.xy + offset, clip.z, clip.w));
    out.color = in_color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color, 1.0);
}
`

const frustumShaderBody = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

fn frustum_vertex(local: vec3<f32>, row1: vec3<f32>, row2: vec3<f32>, row3: vec3<f32>, t: vec3<f32>) -> VertexOutput {
    let world = pose_to_world(local, row1, row2, row3, t);
    var out: VertexOutput;
    out.position = to_webgpu_depth(projection * vec4<f32>(world, 1.0));
    out.color = %s;
    return out;
}

@vertex
fn vs_main(
    @builtin(vertex_index) vertex_index: u32,
    @location(0) in_row1: vec3<f32>,
    @location(1) in_row2: vec3<f32>,
    @location(2) in_row3: vec3<f32>,
    @location(3) in_vert: vec3<f32>
) -> VertexOutput {
    var shape = array<vec3<f32>, %d>(%s);
    return frustum_vertex(shape[vertex_index], in_row1, in_row2, in_row3, in_vert);
}

@vertex
fn vs_wire(
    @builtin(vertex_index) vertex_index: u32,
    @location(0) in_row1: vec3<f32>,
    @location(1) in_row2: vec3<f32>,
    @location(2) in_row3: vec3<f32>,
    @location(3) in_vert: vec3<f32>
) -> VertexOutput {
    var shape = array<vec3<f32>, %d>(%s);
    return frustum_vertex(shape[vertex_index], in_row1, in_row2, in_row3, in_vert);
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color, 1.0);
}
`

const markerShaderBody = `
@group(0) @binding(2) var tiles: texture_2d_array<f32>;
@group(0) @binding(3) var tile_sampler: sampler;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) @interpolate(flat) layer: i32,
}

@vertex
fn vs_main(
    @builtin(vertex_index) vertex_index: u32,
    @location(0) in_row1: vec3<f32>,
    @location(1) in_row2: vec3<f32>,
    @location(2) in_row3: vec3<f32>,
    @location(3) in_vert: vec3<f32>,
    @location(4) in_texture_id: f32
) -> VertexOutput {
    var shape = array<vec3<f32>, %d>(%s);
    var uvs = array<vec2<f32>, %d>(%s);
    let world = pose_to_world(shape[vertex_index], in_row1, in_row2, in_row3, in_vert);
    var out: VertexOutput;
    out.position = to_webgpu_depth(projection * vec4<f32>(world, 1.0));
    out.uv = uvs[vertex_index];
    out.layer = i32(round(in_texture_id));
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(textureSample(tiles, tile_sampler, in.uv, in.layer).rgb, 1.0);
}
`

func pointShader() string {
	return shaderCommon + fmt.Sprintf(pointShaderBody, wgslVec2s(spriteCorners[:]))
}

func frustumShader() string {
	return shaderCommon + fmt.Sprintf(frustumShaderBody,
		wgslVec3(frustumColor),
		len(frustumTriangles), wgslVec3s(frustumTriangles[:]),
		len(frustumEdges), wgslVec3s(frustumEdges[:]))
}

func markerShader() string {
	return shaderCommon + fmt.Sprintf(markerShaderBody,
		len(markerQuad), wgslVec3s(markerQuad[:]),
		len(markerUV), wgslVec2s(markerUV[:]))
}

func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func wgslVec3(v mgl32.Vec3) string {
	return "vec3<f32>(" + wgslFloat(v[0]) + ", " + wgslFloat(v[1]) + ", " + wgslFloat(v[2]) + ")"
}

func wgslVec3s(vs []mgl32.Vec3) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = wgslVec3(v)
	}
	return strings.Join(parts, ", ")
}

func wgslVec2s(vs []mgl32.Vec2) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = "vec2<f32>(" + wgslFloat(v[0]) + ", " + wgslFloat(v[1]) + ")"
	}
	return strings.Join(parts, ", ")
}
