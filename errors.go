package pointcloud

import "errors"

// Input-validation errors. Load and New return them, possibly wrapped with
// context; test with errors.Is.
var (
	// ErrInvalidSize is returned by New for a non-positive width or height.
	ErrInvalidSize = errors.New("pointcloud: width and height must be positive")

	// ErrShape is returned when a position or color array is not N×3.
	ErrShape = errors.New("pointcloud: array is not N×3")

	// ErrShapeMismatch is returned when positions and colors differ in length.
	ErrShapeMismatch = errors.New("pointcloud: positions and colors differ in length")

	// ErrTextureShape is returned for a texture tile that is not 128×128×3.
	ErrTextureShape = errors.New("pointcloud: texture tile is not 128×128×3")

	// ErrTextureCount is returned when textures and camera poses differ in count.
	ErrTextureCount = errors.New("pointcloud: texture count does not match pose count")

	// ErrPoseShape is returned by PoseFromRows for input that is not 3×4 or 4×4.
	ErrPoseShape = errors.New("pointcloud: pose is not 3×4 or 4×4")

	// ErrInvalidView is returned by Render, when view validation is enabled,
	// for a view matrix whose rotation block is not a proper rotation.
	ErrInvalidView = errors.New("pointcloud: view rotation is not orthonormal and right-handed")

	// ErrNilFrame is returned by RenderInto for a nil destination frame.
	ErrNilFrame = errors.New("pointcloud: nil destination frame")

	// ErrClosed is returned by operations on a closed Renderer.
	ErrClosed = errors.New("pointcloud: renderer closed")
)
