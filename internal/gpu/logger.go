//go:build !nogpu

package gpu

import (
	"log/slog"

	"github.com/gogpu/pointcloud/backend"
)

// slogger returns the logger shared with the backend package.
// All logging in internal/gpu goes through this function, so
// pointcloud.SetLogger reaches it without a separate hook.
func slogger() *slog.Logger { return backend.Logger() }
