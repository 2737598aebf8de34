// Command pcdview is an interactive point-cloud viewer.
//
// It loads a PLY file (or a built-in demo scene), then renders it every
// tick with the camera driven by six sliders: roll, pitch and yaw in
// degrees and x, y, z translation in centimeters.
//
//	pcdview -ply scan.ply
//	pcdview -demo -backend software
//	pcdview -demo -snapshot demo.png   # render one frame and exit
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/pointcloud"
	"github.com/gogpu/pointcloud/backend"
	_ "github.com/gogpu/pointcloud/backend/software"
	_ "github.com/gogpu/pointcloud/gpu"
	"github.com/gogpu/pointcloud/internal/ply"
)

// config is the parsed command line.
type config struct {
	width, height  int
	plyPath        string
	demo           bool
	fov, near, far float32
	backend        string
	pointSize      float32
	snapshot       string
}

func main() {
	var (
		width     = flag.Int("width", 800, "window width")
		height    = flag.Int("height", 800, "window height")
		plyPath   = flag.String("ply", "", "PLY file to view")
		demo      = flag.Bool("demo", false, "view the built-in demo scene")
		fov       = flag.Float64("fov", 90, "horizontal field of view in degrees")
		near      = flag.Float64("near", 0.1, "near clip distance")
		far       = flag.Float64("far", 100, "far clip distance")
		device    = flag.String("backend", backend.NameGPU, "device backend (gpu or software)")
		pointSize = flag.Float64("point-size", pointcloud.DefaultPointSize, "point size in pixels")
		snapshot  = flag.String("snapshot", "", "render one frame to this PNG and exit")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		pointcloud.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	err := run(config{
		width:     *width,
		height:    *height,
		plyPath:   *plyPath,
		demo:      *demo,
		fov:       float32(*fov),
		near:      float32(*near),
		far:       float32(*far),
		backend:   *device,
		pointSize: float32(*pointSize),
		snapshot:  *snapshot,
	})
	if err != nil {
		log.Fatalf("pcdview: %v", err)
	}
}

// run loads the scene and either writes one snapshot or runs the viewer
// window until it is closed. The renderer is closed on every return.
func run(cfg config) error {
	sc, err := loadScene(cfg.plyPath, cfg.demo)
	if err != nil {
		return err
	}

	r, err := pointcloud.New(cfg.width, cfg.height,
		pointcloud.WithBackend(cfg.backend),
		pointcloud.WithPointSize(cfg.pointSize),
		pointcloud.WithViewValidation(1e-3),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			pointcloud.Logger().Warn("pcdview: close renderer", "err", cerr)
		}
	}()

	if err := r.Load(sc.positions, sc.colors, sc.poses, sc.tiles); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	k := pointcloud.IntrinsicsFromFOV(cfg.width, cfg.height, cfg.fov)
	if cfg.snapshot != "" {
		frame, err := r.Render(k, newSliders().view(), cfg.near, cfg.far)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if err := savePNG(cfg.snapshot, frame); err != nil {
			return err
		}
		log.Printf("Frame saved to %s (%dx%d)\n", cfg.snapshot, cfg.width, cfg.height)
		return nil
	}

	v, err := newViewer(r, k, cfg.near, cfg.far, "pcdview")
	if err != nil {
		return err
	}
	ebiten.SetWindowTitle("pcdview")
	ebiten.SetWindowSize(cfg.width, cfg.height)
	ebiten.SetTPS(60)
	return ebiten.RunGame(v)
}

// loadScene reads the PLY file, or builds the demo scene when demo is set
// or no file is given.
func loadScene(path string, demo bool) (*scene, error) {
	if demo || path == "" {
		return demoScene(), nil
	}
	c, err := ply.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pointcloud.Logger().Info("pcdview: cloud loaded", "path", path, "points", c.Len())
	return &scene{positions: c.Positions, colors: c.Colors}, nil
}
