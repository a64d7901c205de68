package projective

import (
	"context"

	"github.com/patchvo/patchvo/spatialmath"
	"github.com/patchvo/patchvo/transform"
)

// FlowMagnitude returns, per edge, a scalar blend of the full-motion and
// translation-only reprojection displacements:
//
//	beta * |full flow| + (1 - beta) * |translation-only flow|
//
// Both displacements are measured against the patch reprojected into its own
// host frame. The blend is a patch importance heuristic (which patches to
// keep, which edges matter), not an optimization residual: with beta = 1 it is
// exactly the full-motion flow magnitude, with beta = 0 exactly the
// translation-only one.
func FlowMagnitude(
	ctx context.Context,
	poses []spatialmath.Pose,
	patches []Patch,
	intrinsics []transform.PinholeCameraIntrinsics,
	g *VisibilityGraph,
	beta float64,
) ([]float64, error) {
	host, err := Transform(ctx, poses, patches, intrinsics, g.hostView(), Options{})
	if err != nil {
		return nil, err
	}
	full, err := Transform(ctx, poses, patches, intrinsics, g, Options{})
	if err != nil {
		return nil, err
	}
	tonly, err := Transform(ctx, poses, patches, intrinsics, g, Options{TranslationOnly: true})
	if err != nil {
		return nil, err
	}

	mags := make([]float64, g.Len())
	for e := range mags {
		fullMag := full.Pixels[e].Sub(host.Pixels[e]).Norm()
		tonlyMag := tonly.Pixels[e].Sub(host.Pixels[e]).Norm()
		mags[e] = beta*fullMag + (1-beta)*tonlyMag
	}
	return mags, nil
}
