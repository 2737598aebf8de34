package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/pointcloud"
)

// viewer is the interactive ebiten game: sliders drive the view matrix,
// every tick renders one frame and Draw blits it to the window.
type viewer struct {
	r         *pointcloud.Renderer
	k         pointcloud.Intrinsics
	near, far float32
	sliders   *sliders
	hud       *hud

	frame *pointcloud.Frame
	img   *ebiten.Image
	rgba  []byte

	shots    int
	snapshot string // path prefix for P
}

func newViewer(r *pointcloud.Renderer, k pointcloud.Intrinsics, near, far float32, snapshot string) (*viewer, error) {
	h, err := newHUD()
	if err != nil {
		return nil, err
	}
	w, ht := r.Size()
	return &viewer{
		r:        r,
		k:        k,
		near:     near,
		far:      far,
		sliders:  newSliders(),
		hud:      h,
		frame:    pointcloud.NewFrame(w, ht),
		img:      ebiten.NewImage(w, ht),
		rgba:     make([]byte, w*ht*4),
		snapshot: snapshot,
	}, nil
}

var sliderKeys = [sliderCount]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5, ebiten.Key6,
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	for i, k := range sliderKeys {
		if inpututil.IsKeyJustPressed(k) {
			v.sliders.selectIndex(i)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.sliders.next()
	}
	step := 1
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		step = 10
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		v.sliders.adjust(-step)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		v.sliders.adjust(step)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.sliders.reset()
	}

	if err := v.r.RenderInto(v.frame, v.k, v.sliders.view(), v.near, v.far); err != nil {
		if errors.Is(err, pointcloud.ErrInvalidView) {
			pointcloud.Logger().Warn("pcdview: view rejected", "err", err)
			return nil
		}
		return err
	}
	v.frame.CopyRGBA(v.rgba)

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.shots++
		path := fmt.Sprintf("%s-%03d.png", v.snapshot, v.shots)
		if err := savePNG(path, v.frame); err != nil {
			return err
		}
		pointcloud.Logger().Info("pcdview: snapshot saved", "path", path)
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	v.img.WritePixels(v.rgba)
	screen.DrawImage(v.img, nil)
	v.hud.draw(screen, v.hud.lines(v.sliders, v.r.Stats(), v.r.Backend(), ebiten.ActualFPS()))
	_, h := v.r.Size()
	ebitenutil.DebugPrintAt(screen, keyHelp, hudMargin, h-hudMargin-16)
}

func (v *viewer) Layout(int, int) (int, int) { return v.r.Size() }

// savePNG writes the frame to path as PNG.
func savePNG(path string, f *pointcloud.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(out, f.Image()); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return out.Close()
}
