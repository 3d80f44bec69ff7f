// Package imaging holds the pixel containers of the camera pipeline and the
// conversions between them.
//
// Two layouts meet here. The display side works with RawFrame: tightly packed
// RGBA bytes whose row 0 is either the top or the bottom of the picture,
// depending on the surface (Origin). The processing side works with Matrix: a
// mutable pixel grid in detector channel order (BGRA or BGR) whose row 0 is
// always the top of the picture.
//
// # Coordinate System
//
// Matrix and image coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. SampleColor uses the same
// convention on RawFrame regardless of its Origin.
//
// # Conversions
//
// ToMatrix and ToBuffer only permute bytes (a vertical flip and a red/blue
// swap), so a buffer that passes through both unchanged comes back identical.
// Corrector.Apply rotates a matrix by a fixed Orientation; rotations by 90 and
// 270 degrees swap width and height.
//
// # Error Handling
//
// Inputs that break a boundary contract (payload length not matching the
// dimensions, unsupported orientations or channel orders) are reported with
// errors wrapping ErrContractViolation. Nothing is truncated or padded.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. A RawFrame must not be modified once
// it has been published; a Matrix belongs to a single goroutine.
package imaging
