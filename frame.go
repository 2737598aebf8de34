package pointcloud

import (
	"image"
	"image/color"
)

// Frame is a rendered RGB image: Height rows of Width pixels, rows
// top-down, 3 bytes per pixel.
type Frame struct {
	Width, Height int
	Pix           []byte
}

// NewFrame allocates a black frame.
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Pix: make([]byte, width*height*3)}
}

// At returns the pixel at column x, row y (row 0 is the top).
func (f *Frame) At(x, y int) color.RGBA {
	i := (y*f.Width + x) * 3
	return color.RGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: 0xff}
}

// Image converts the frame to an opaque *image.RGBA.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	f.CopyRGBA(img.Pix)
	return img
}

// CopyRGBA writes the frame as RGBA into dst, which must hold
// Width*Height*4 bytes.
func (f *Frame) CopyRGBA(dst []byte) {
	for i, j := 0, 0; i+2 < len(f.Pix) && j+3 < len(dst); i, j = i+3, j+4 {
		dst[j], dst[j+1], dst[j+2], dst[j+3] = f.Pix[i], f.Pix[i+1], f.Pix[i+2], 0xff
	}
}

// flipRows copies src to dst reversing the row order.
func flipRows(dst, src []byte, width, height int) {
	stride := width * 3
	for y := 0; y < height; y++ {
		copy(dst[y*stride:(y+1)*stride], src[(height-1-y)*stride:(height-y)*stride])
	}
}
