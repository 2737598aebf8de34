package backend

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
)

// Backend name constants.
const (
	// NameGPU is the wgpu HAL device (Vulkan).
	NameGPU = "gpu"

	// NameSoftware is the CPU reference device.
	NameSoftware = "software"
)

// Opener opens a device for a configuration.
type Opener func(cfg Config) (Device, error)

// Priority order for Best: GPU first, software only when nothing else is
// registered.
var registry = gpucontext.NewRegistry[Opener](gpucontext.WithPriority(NameGPU, NameSoftware))

// Register registers a device opener under name.
// This is typically called from init() in the device package.
// A later registration under the same name replaces the earlier one.
func Register(name string, open Opener) {
	registry.Register(name, func() Opener { return open })
}

// Unregister removes a device from the registry.
// This is useful for testing.
func Unregister(name string) {
	registry.Unregister(name)
}

// IsRegistered reports whether a device is registered under name.
func IsRegistered(name string) bool {
	return registry.Has(name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	names := registry.Available()
	slices.Sort(names)
	return names
}

// Best returns the name of the highest-priority registered backend,
// or "" if none is registered.
func Best() string {
	return registry.BestName()
}

// Open opens the device registered under name.
func Open(name string, cfg Config) (Device, error) {
	if !registry.Has(name) {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	open := registry.Get(name)
	if open == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendNotAvailable, name, err)
	}
	Logger().Debug("backend: device opened", "backend", name, "width", cfg.Width, "height", cfg.Height)
	return dev, nil
}
