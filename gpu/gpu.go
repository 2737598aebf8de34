//go:build !nogpu

// Package gpu registers the wgpu HAL render device as backend.NameGPU,
// the default backend of pointcloud.New.
//
// The device opens the first discrete or integrated Vulkan adapter. To
// share an existing device instead, pass a provider that exposes
// HalDevice() and HalQueue() through pointcloud.WithDeviceProvider.
//
// Usage:
//
//	import _ "github.com/gogpu/pointcloud/gpu" // enable the GPU device
package gpu

import (
	"github.com/gogpu/pointcloud/backend"
	gpuimpl "github.com/gogpu/pointcloud/internal/gpu"
)

func init() {
	backend.Register(backend.NameGPU, func(cfg backend.Config) (backend.Device, error) {
		dev, err := gpuimpl.Open(cfg)
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}
