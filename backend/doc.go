// Package backend defines the device abstraction the point-cloud renderer
// draws through, and the registry that selects a device by name.
//
// # Devices
//
// A [Device] owns one fixed-size color+depth target. It compiles
// [Program]s into [Pipeline]s, holds per-instance vertex data in
// [Buffer]s and layered textures in [TextureArray]s, and executes
// instanced draws between BeginFrame and EndFrame. The rasterization
// mode ([RasterFill] or [RasterWireframe]) is device-global state.
//
// # Registration
//
// Devices register an [Opener] from init() in their package:
//
//	import _ "github.com/gogpu/pointcloud/backend/software" // CPU reference device
//	import _ "github.com/gogpu/pointcloud/gpu"              // wgpu HAL device
//
// and are opened by name:
//
//	dev, err := backend.Open(backend.NameSoftware, backend.Config{Width: 640, Height: 480})
//
// # Programs
//
// Every program is WGSL with a vs_main vertex entry point, a fs_main
// fragment entry point and an optional vs_wire entry point for outline
// drawing. It must declare a uniform named "projection". [Compile]
// validates a program with naga and reports failures as [*CompileError].
// Each program also carries a [VertexFunc], the CPU form of vs_main
// that the software device executes.
package backend
