// Package pointcloud renders colored 3D point clouds, with optional camera
// frustums and textured camera markers, into off-screen RGB frames.
//
// # Overview
//
// A [Renderer] owns a fixed-size color+depth frame buffer on a device
// backend. [Renderer.Load] uploads a dataset: N points (positions and
// colors), and optionally M camera poses and M texture tiles. Each call
// to [Renderer.Render] takes pinhole intrinsics and a world→camera view
// matrix and returns a top-down RGB [Frame].
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/pointcloud"
//		_ "github.com/gogpu/pointcloud/gpu" // wgpu device
//	)
//
//	r, err := pointcloud.New(800, 800)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close()
//
//	positions := []float32{0, 0, 5, 1, 0, 5, -1, 0, 5}
//	colors := []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}
//	if err := r.Load(positions, colors, nil, nil); err != nil {
//		log.Fatal(err)
//	}
//
//	k := pointcloud.Intrinsics{Fx: 500, Fy: 500, Cx: 400, Cy: 400}
//	frame, err := r.Render(k, mgl32.Ident4(), 0.1, 100)
//
// # Conventions
//
// View matrices and camera poses use the vision convention: +x right,
// +y down, +z forward. The renderer flips y and z before applying the
// OpenGL-style projection built by [Projection].
//
// # Draw Order
//
// Points are drawn first, then frustums in wireframe mode, then textured
// markers. Depth testing is always on, so the nearest primitive wins
// regardless of order.
//
// # Backends
//
// The default backend is the wgpu HAL device registered by importing
// github.com/gogpu/pointcloud/gpu. The CPU reference device in
// github.com/gogpu/pointcloud/backend/software is selected explicitly with
// [WithBackend]. There is no automatic fallback between them.
package pointcloud
