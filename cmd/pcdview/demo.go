package main

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/pointcloud"
)

// scene is a dataset ready for Renderer.Load.
type scene struct {
	positions []float32
	colors    []float32
	poses     []pointcloud.Pose
	tiles     []pointcloud.Tile
}

var demoTarget = mgl32.Vec3{0, 0, 5}

// demoScene builds a checkered floor, a sphere colored by its normals and
// three cameras looking at the sphere, each with a checkerboard texture.
func demoScene() *scene {
	s := &scene{}

	// Floor at y = 1 (below the origin camera; +y is down).
	for x := -30; x <= 30; x++ {
		for z := 20; z <= 80; z++ {
			s.add(mgl32.Vec3{float32(x) / 10, 1, float32(z) / 10}, floorColor(x, z))
		}
	}

	const rings, segments = 40, 80
	for i := 1; i < rings; i++ {
		theta := math.Pi * float64(i) / rings
		for j := 0; j < segments; j++ {
			phi := 2 * math.Pi * float64(j) / segments
			n := mgl32.Vec3{
				float32(math.Sin(theta) * math.Cos(phi)),
				float32(math.Cos(theta)),
				float32(math.Sin(theta) * math.Sin(phi)),
			}
			s.add(demoTarget.Add(n), mgl32.Vec3{(n[0] + 1) / 2, (n[1] + 1) / 2, (n[2] + 1) / 2})
		}
	}

	eyes := []mgl32.Vec3{{-2.5, -0.5, 2.5}, {2.5, -0.5, 2.5}, {0, -2, 2}}
	hues := []color.RGBA{{220, 60, 60, 255}, {60, 200, 80, 255}, {70, 110, 230, 255}}
	for i, eye := range eyes {
		s.poses = append(s.poses, lookAt(eye, demoTarget))
		s.tiles = append(s.tiles, pointcloud.TileFromImage(checkerboard(64, 8, hues[i])))
	}
	return s
}

func (s *scene) add(p, c mgl32.Vec3) {
	s.positions = append(s.positions, p[0], p[1], p[2])
	s.colors = append(s.colors, c[0], c[1], c[2])
}

func floorColor(x, z int) mgl32.Vec3 {
	if (x/5+z/5)%2 == 0 {
		return mgl32.Vec3{0.55, 0.55, 0.55}
	}
	return mgl32.Vec3{0.3, 0.3, 0.3}
}

// lookAt returns the camera-to-world pose of a camera at eye looking at
// target, with +y pointing down.
func lookAt(eye, target mgl32.Vec3) pointcloud.Pose {
	fwd := target.Sub(eye).Normalize()
	right := mgl32.Vec3{0, 1, 0}.Cross(fwd).Normalize()
	down := fwd.Cross(right)
	return pointcloud.Pose{Rotation: mgl32.Mat3FromCols(right, down, fwd), Translation: eye}
}

// checkerboard draws a size×size board of cells×cells squares in c and
// white.
func checkerboard(size, cells int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := size / cells
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, c)
			} else {
				img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}
