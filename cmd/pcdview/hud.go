package main

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/pointcloud"
)

const (
	hudFontSize = 13
	hudMargin   = 8
)

const keyHelp = "1-6 select  ←/→ adjust (shift ×10)  tab next  R reset  P snapshot  Esc/Q quit"

// hud draws the slider panel and renderer statistics over the frame.
type hud struct {
	face    text.Face
	printer *message.Printer
}

func newHUD() (*hud, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load HUD font: %w", err)
	}
	return &hud{
		face:    &text.GoTextFace{Source: src, Size: hudFontSize},
		printer: message.NewPrinter(language.English),
	}, nil
}

// lines returns the HUD text, one entry per row.
func (h *hud) lines(s *sliders, st pointcloud.Stats, backendName string, fps float64) []string {
	out := make([]string, 0, sliderCount+2)
	out = append(out, h.printer.Sprintf("%s  %d points  %d cameras  %.0f fps", backendName, st.Points, st.Cameras, fps))
	for i, it := range s.items {
		marker := " "
		if i == s.selected {
			marker = ">"
		}
		out = append(out, h.printer.Sprintf("%s %d %-5s %5d %s", marker, i+1, it.name, it.value, it.unit))
	}
	return out
}

func (h *hud) draw(dst *ebiten.Image, lines []string) {
	step := float64(hudFontSize) * 1.4
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(hudMargin, hudMargin+float64(i)*step)
		op.ColorScale.ScaleWithColor(color.White)
		text.Draw(dst, line, h.face, op)
	}
}
