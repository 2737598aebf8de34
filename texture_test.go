package pointcloud

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestValidateTiles(t *testing.T) {
	tests := []struct {
		name  string
		tiles []Tile
		ok    bool
	}{
		{"none", nil, true},
		{"one", []Tile{make(Tile, tileBytes)}, true},
		{"short", []Tile{make(Tile, tileBytes), make(Tile, tileBytes-3)}, false},
		{"rgba sized", []Tile{make(Tile, TileSize*TileSize*4)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTiles(tt.tiles)
			if tt.ok != (err == nil) {
				t.Errorf("validateTiles = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrTextureShape) {
				t.Errorf("err = %v, want ErrTextureShape", err)
			}
		})
	}
}

func TestMipChain(t *testing.T) {
	tiles := []Tile{solidTile(200, 100, 50), solidTile(0, 0, 255)}
	levels := mipChain(tiles)
	if len(levels) != 8 {
		t.Fatalf("%d levels, want 8 (128 down to 1)", len(levels))
	}
	size := TileSize
	for i, lvl := range levels {
		if lvl.Size != size {
			t.Errorf("level %d size = %d, want %d", i, lvl.Size, size)
		}
		if len(lvl.Layers) != len(tiles) {
			t.Fatalf("level %d has %d layers", i, len(lvl.Layers))
		}
		for j, px := range lvl.Layers {
			if len(px) != size*size*3 {
				t.Errorf("level %d layer %d has %d bytes", i, j, len(px))
			}
		}
		size /= 2
	}
	// A solid tile stays (nearly) solid at every level.
	last := levels[len(levels)-1].Layers[0]
	for c, want := range []byte{200, 100, 50} {
		if d := int(last[c]) - int(want); d < -2 || d > 2 {
			t.Errorf("1×1 level channel %d = %d, want about %d", c, last[c], want)
		}
	}
	if &levels[0].Layers[0][0] != &tiles[0][0] {
		t.Error("level 0 should reuse the caller's tile")
	}
}

func TestTileFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			src.SetRGBA(x, y, color.RGBA{10, 20, 30, 255})
		}
	}
	tile := TileFromImage(src)
	if len(tile) != tileBytes {
		t.Fatalf("len = %d, want %d", len(tile), tileBytes)
	}
	if err := validateTiles([]Tile{tile}); err != nil {
		t.Errorf("validateTiles: %v", err)
	}
	mid := (TileSize/2*TileSize + TileSize/2) * 3
	if tile[mid] != 10 || tile[mid+1] != 20 || tile[mid+2] != 30 {
		t.Errorf("center texel = %v, want 10 20 30", tile[mid:mid+3])
	}
}

func TestRGBConversions(t *testing.T) {
	px := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	img := rgbToRGBA(px, 2)
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{10, 11, 12, 255}) {
		t.Errorf("RGBAAt(1,1) = %v", got)
	}
	back := rgbaToRGB(img)
	if string(back) != string(px) {
		t.Errorf("round trip = %v, want %v", back, px)
	}

	// Sub-images honor their bounds.
	sub := img.SubImage(image.Rect(1, 0, 2, 2)).(*image.RGBA)
	if got := rgbaToRGB(sub); string(got) != string([]byte{4, 5, 6, 10, 11, 12}) {
		t.Errorf("sub-image = %v", got)
	}
}
