// Package projective implements the projective transform and Jacobian engine
// at the center of patch-graph visual odometry: it reprojects tracked patches
// between camera frames over a visibility graph and linearizes the
// reprojection residual with respect to pose and depth.
//
// Every entry point is a pure function of its inputs. Pose, patch, and
// intrinsics buffers are borrowed for the duration of a call and never
// retained; the caller owns their mutation between optimization iterations.
package projective

// Patch is a tracked feature point: an anchor pixel in a host frame plus an
// inverse depth estimate. The anchor is fixed once the patch is created; only
// the depth is refined by the optimizer.
type Patch struct {
	// Frame is the index of the host frame the patch was extracted from.
	Frame int
	// X, Y are the anchor pixel coordinates in the host frame.
	X, Y float64
	// Depth is the current inverse depth estimate.
	Depth float64
}
