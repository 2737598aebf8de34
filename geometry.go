package pointcloud

import "fmt"

// validateCloud checks the N×3 shapes of positions and colors.
func validateCloud(positions, colors []float32) error {
	if len(positions)%3 != 0 {
		return fmt.Errorf("positions: %d values: %w", len(positions), ErrShape)
	}
	if len(colors)%3 != 0 {
		return fmt.Errorf("colors: %d values: %w", len(colors), ErrShape)
	}
	if len(positions) != len(colors) {
		return fmt.Errorf("%d positions, %d colors: %w", len(positions)/3, len(colors)/3, ErrShapeMismatch)
	}
	return nil
}

// packPoints interleaves positions and colors as x y z r g b records.
func packPoints(positions, colors []float32) []float32 {
	n := len(positions) / 3
	out := make([]float32, 0, n*pointStride)
	for i := 0; i < n; i++ {
		out = append(out, positions[i*3:i*3+3]...)
		out = append(out, colors[i*3:i*3+3]...)
	}
	return out
}

// appendPose appends the row-major rotation followed by the translation.
func appendPose(out []float32, p Pose) []float32 {
	r := p.Rotation
	for row := 0; row < 3; row++ {
		out = append(out, r.At(row, 0), r.At(row, 1), r.At(row, 2))
	}
	return append(out, p.Translation[0], p.Translation[1], p.Translation[2])
}

// packFrustums builds one 12-float record per pose.
func packFrustums(poses []Pose) []float32 {
	out := make([]float32, 0, len(poses)*frustumStride)
	for _, p := range poses {
		out = appendPose(out, p)
	}
	return out
}

// packMarkers builds one 13-float record per pose; the texture id of pose
// i is i.
func packMarkers(poses []Pose) []float32 {
	out := make([]float32, 0, len(poses)*markerStride)
	for i, p := range poses {
		out = appendPose(out, p)
		out = append(out, float32(i))
	}
	return out
}
