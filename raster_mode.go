package pointcloud

import "github.com/gogpu/pointcloud/backend"

// withRasterMode runs fn with the device in mode and restores the prior
// mode on every exit path, including errors and panics. When the device is
// already in mode, fn runs without toggling.
func withRasterMode(dev backend.Device, mode backend.RasterMode, fn func() error) error {
	prev := dev.RasterMode()
	if prev == mode {
		return fn()
	}
	dev.SetRasterMode(mode)
	defer dev.SetRasterMode(prev)
	return fn()
}
