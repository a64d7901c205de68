package projective

import (
	"context"

	"github.com/pkg/errors"

	"github.com/patchvo/patchvo/spatialmath"
	"github.com/patchvo/patchvo/transform"
	"github.com/patchvo/patchvo/utils"
)

// PointCloud lifts every patch into world coordinates under the current pose
// and depth estimates: the patch is back-projected with its host frame's
// intrinsics and moved through the inverse of the host pose. The result keeps
// the homogeneous form, so zero-disparity (infinite) points stay
// representable; Dehomogenize to get Euclidean points.
func PointCloud(
	ctx context.Context,
	poses []spatialmath.Pose,
	patches []Patch,
	intrinsics []transform.PinholeCameraIntrinsics,
) ([]spatialmath.HomogeneousPoint, error) {
	if len(intrinsics) != len(poses) {
		return nil, errors.Errorf("need one set of intrinsics per frame, got %d intrinsics for %d poses",
			len(intrinsics), len(poses))
	}
	for p, patch := range patches {
		if patch.Frame < 0 || patch.Frame >= len(poses) {
			return nil, errors.Errorf("patch %d: host frame %d out of range [0,%d)", p, patch.Frame, len(poses))
		}
	}

	pts := make([]spatialmath.HomogeneousPoint, len(patches))
	//nolint:errcheck
	utils.ForEachParallel(ctx, len(patches), func(p int) {
		patch := patches[p]
		x0 := intrinsics[patch.Frame].BackProject(patch.X, patch.Y, patch.Depth)
		pts[p] = poses[patch.Frame].Inverse().Transform(x0)
	})
	return pts, nil
}
