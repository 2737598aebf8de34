//go:build !nogpu

// Package gpu implements the point-cloud render device on a wgpu HAL
// device (Pure Go WebGPU, zero CGO).
//
// A Device owns one RGBA8 color attachment, one Depth32Float attachment
// and a staging buffer for readback. Programs become a shader module, a
// bind group layout and up to two render pipelines: triangle list for
// vs_main and line list for vs_wire. Per-instance records are bound as a
// single instance-stepped vertex buffer; vertex positions come from
// templates indexed by vertex_index in the shader.
//
// Draws are recorded between BeginFrame and EndFrame and encoded into a
// single render pass at EndFrame, followed by a texture-to-buffer copy,
// submit, WaitIdle and a mapped read. Readback is top-down.
//
// The device is registered as backend.NameGPU by the public
// github.com/gogpu/pointcloud/gpu package.
package gpu
