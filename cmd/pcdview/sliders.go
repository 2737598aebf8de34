package main

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/pointcloud"
)

// slider is one integer camera control, like a GUI trackbar.
type slider struct {
	name     string
	unit     string
	value    int
	min, max int
}

// Slider indices.
const (
	sliderRoll = iota
	sliderPitch
	sliderYaw
	sliderX
	sliderY
	sliderZ
	sliderCount
)

// sliders holds the six camera controls: angles in degrees, translation
// in centimeters.
type sliders struct {
	items    [sliderCount]slider
	selected int
}

func newSliders() *sliders {
	return &sliders{items: [sliderCount]slider{
		sliderRoll:  {name: "roll", unit: "°", min: -180, max: 180},
		sliderPitch: {name: "pitch", unit: "°", min: -180, max: 180},
		sliderYaw:   {name: "yaw", unit: "°", min: -180, max: 180},
		sliderX:     {name: "x", unit: "cm", min: -1000, max: 1000},
		sliderY:     {name: "y", unit: "cm", min: -1000, max: 1000},
		sliderZ:     {name: "z", unit: "cm", min: -1000, max: 1000},
	}}
}

func (s *sliders) selectIndex(i int) {
	if i >= 0 && i < sliderCount {
		s.selected = i
	}
}

func (s *sliders) next() { s.selected = (s.selected + 1) % sliderCount }

// adjust moves the selected slider by delta, clamped to its range.
func (s *sliders) adjust(delta int) {
	it := &s.items[s.selected]
	it.value = min(max(it.value+delta, it.min), it.max)
}

func (s *sliders) reset() {
	for i := range s.items {
		s.items[i].value = 0
	}
}

// view returns the world→camera matrix for the current values.
func (s *sliders) view() mgl32.Mat4 {
	v := func(i int) float32 { return float32(s.items[i].value) }
	return pointcloud.ViewFromEuler(
		v(sliderRoll), v(sliderPitch), v(sliderYaw),
		v(sliderX)/100, v(sliderY)/100, v(sliderZ)/100,
	)
}
