package pointcloud

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/pointcloud/backend"
)

// Camera texture tile geometry.
const (
	TileSize     = 128
	TileChannels = 3
	tileBytes    = TileSize * TileSize * TileChannels
)

// Tile is one camera texture: TileSize×TileSize RGB pixels, rows top-down.
type Tile []byte

// TileFromImage scales img to a TileSize×TileSize tile with bilinear
// filtering.
func TileFromImage(img image.Image) Tile {
	dst := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return rgbaToRGB(dst)
}

func validateTiles(tiles []Tile) error {
	for i, t := range tiles {
		if len(t) != tileBytes {
			return fmt.Errorf("texture %d has %d bytes, want %d: %w", i, len(t), tileBytes, ErrTextureShape)
		}
	}
	return nil
}

// mipChain builds the full mip chain of the tiles, TileSize down to 1,
// each level a half-size bilinear reduction of the one above.
func mipChain(tiles []Tile) []backend.MipLevel {
	levels := []backend.MipLevel{{Size: TileSize, Layers: make([][]byte, len(tiles))}}
	cur := make([]*image.RGBA, len(tiles))
	for i, t := range tiles {
		levels[0].Layers[i] = t
		cur[i] = rgbToRGBA(t, TileSize)
	}
	for size := TileSize / 2; size >= 1; size /= 2 {
		lvl := backend.MipLevel{Size: size, Layers: make([][]byte, len(tiles))}
		for i, src := range cur {
			dst := image.NewRGBA(image.Rect(0, 0, size, size))
			draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
			lvl.Layers[i] = rgbaToRGB(dst)
			cur[i] = dst
		}
		levels = append(levels, lvl)
	}
	return levels
}

func rgbToRGBA(px []byte, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i, j := 0, 0; i < len(px); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = px[i], px[i+1], px[i+2], 0xff
	}
	return img
}

func rgbaToRGB(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for x := 0; x < len(row); x += 4 {
			out = append(out, row[x], row[x+1], row[x+2])
		}
	}
	return out
}
