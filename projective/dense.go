package projective

import (
	"context"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"github.com/patchvo/patchvo/logging"
	"github.com/patchvo/patchvo/rimage"
	"github.com/patchvo/patchvo/spatialmath"
	"github.com/patchvo/patchvo/transform"
	"github.com/patchvo/patchvo/utils"
)

// defaultSelfEdgePerturbation replaces the exact identity transform on
// self-edges (i == j). An exact identity produces zero parallax and a
// singular linearization for self-edges used as regularizers; a small fixed
// translation keeps them informative.
var defaultSelfEdgePerturbation = r3.Vector{X: -0.1, Y: 0, Z: 0}

// DenseOptions controls the dense (full depth map) path.
type DenseOptions struct {
	// SelfEdgePerturbation overrides the translation substituted for the
	// relative transform on self-edges. Nil selects the default (-0.1, 0, 0).
	SelfEdgePerturbation *r3.Vector
	// Logger, when set, reports per-edge validity statistics at debug level.
	Logger logging.Logger
}

// DenseResult is the reprojection of one full depth map into another frame.
// Pixels and Valid are row-major fields of the source map's size.
type DenseResult struct {
	Width  int
	Height int
	Pixels []r2.Point
	Valid  []bool
}

// FlowResult is the camera-motion-induced optical flow of one edge: the
// displacement of every source pixel, with validity.
type FlowResult struct {
	Width  int
	Height int
	Flow   []r2.Point
	Valid  []bool
}

// CoordsGrid returns the row-major pixel coordinate grid of the given size.
func CoordsGrid(width, height int) []r2.Point {
	grid := make([]r2.Point, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			grid[y*width+x] = r2.Point{X: float64(x), Y: float64(y)}
		}
	}
	return grid
}

// DenseTransform maps every pixel of the source frame's inverse depth map
// into the target frame, per edge (ii[e] -> jj[e]). It is the same pipeline
// as Transform but over full per-pixel depth, used to build supervision
// targets from ground truth. A pixel is invalid when either its source depth
// or its transformed depth falls at or below the minimum depth.
func DenseTransform(
	ctx context.Context,
	poses []spatialmath.Pose,
	depths []*rimage.DepthMap,
	intrinsics []transform.PinholeCameraIntrinsics,
	ii, jj []int,
	opts DenseOptions,
) ([]*DenseResult, error) {
	if err := validateDense(poses, depths, intrinsics, ii, jj); err != nil {
		return nil, err
	}

	selfEdge := defaultSelfEdgePerturbation
	if opts.SelfEdgePerturbation != nil {
		selfEdge = *opts.SelfEdgePerturbation
	}

	results := make([]*DenseResult, len(ii))
	for e := range ii {
		i, j := ii[e], jj[e]
		dm := depths[i]
		w, h := dm.Width(), dm.Height()

		var gij spatialmath.Pose
		if i == j {
			gij = spatialmath.NewSE3(quat.Number{Real: 1}, selfEdge)
		} else {
			gij = poses[j].Compose(poses[i].Inverse())
		}

		res := &DenseResult{
			Width:  w,
			Height: h,
			Pixels: make([]r2.Point, w*h),
			Valid:  make([]bool, w*h),
		}
		intr := intrinsics[j]
		srcIntr := intrinsics[i]
		//nolint:errcheck
		utils.ForEachParallel(ctx, h, func(y int) {
			for x := 0; x < w; x++ {
				d := dm.GetDepth(x, y)
				x0 := srcIntr.BackProject(float64(x), float64(y), d)
				x1 := gij.Transform(x0)
				pix, projValid := intr.ProjectDense(x1)
				res.Pixels[y*w+x] = pix
				res.Valid[y*w+x] = projValid && sourceDepthValid(d) && x1.Z > transform.MinDepth
			}
		})
		results[e] = res

		if opts.Logger != nil {
			valid := 0
			for _, ok := range res.Valid {
				if ok {
					valid++
				}
			}
			opts.Logger.Debugw("dense transform edge", "source", i, "target", j, "valid", valid, "total", w*h)
		}
	}
	return results, nil
}

// InducedFlow returns, per edge, the optical flow induced by camera motion:
// the dense reprojection displaced against the source pixel grid.
func InducedFlow(
	ctx context.Context,
	poses []spatialmath.Pose,
	depths []*rimage.DepthMap,
	intrinsics []transform.PinholeCameraIntrinsics,
	ii, jj []int,
	opts DenseOptions,
) ([]*FlowResult, error) {
	dense, err := DenseTransform(ctx, poses, depths, intrinsics, ii, jj, opts)
	if err != nil {
		return nil, err
	}
	flows := make([]*FlowResult, len(dense))
	for e, res := range dense {
		grid := CoordsGrid(res.Width, res.Height)
		flow := &FlowResult{
			Width:  res.Width,
			Height: res.Height,
			Flow:   make([]r2.Point, len(grid)),
			Valid:  res.Valid,
		}
		for p := range grid {
			flow.Flow[p] = res.Pixels[p].Sub(grid[p])
		}
		flows[e] = flow
	}
	return flows, nil
}

// sourceDepthValid gates a source pixel on its own (Euclidean) depth 1/d: the
// depth must be positive-or-infinite and above the minimum depth.
func sourceDepthValid(invDepth float64) bool {
	if invDepth < 0 {
		return false
	}
	if invDepth == 0 {
		// point at infinity
		return true
	}
	return 1/invDepth > transform.MinDepth
}

func validateDense(
	poses []spatialmath.Pose,
	depths []*rimage.DepthMap,
	intrinsics []transform.PinholeCameraIntrinsics,
	ii, jj []int,
) error {
	if len(ii) != len(jj) {
		return errors.Errorf("dense index slices must have equal length, got ii=%d jj=%d", len(ii), len(jj))
	}
	if len(intrinsics) != len(poses) || len(depths) != len(poses) {
		return errors.Errorf("need one set of intrinsics and one depth map per frame, got %d intrinsics and %d depth maps for %d poses",
			len(intrinsics), len(depths), len(poses))
	}
	var err error
	for e := range ii {
		if ii[e] < 0 || ii[e] >= len(poses) {
			err = multierr.Append(err, errors.Errorf("edge %d: source frame %d out of range [0,%d)", e, ii[e], len(poses)))
			continue
		}
		if jj[e] < 0 || jj[e] >= len(poses) {
			err = multierr.Append(err, errors.Errorf("edge %d: target frame %d out of range [0,%d)", e, jj[e], len(poses)))
			continue
		}
		if depths[ii[e]] == nil || !depths[ii[e]].HasData() {
			err = multierr.Append(err, errors.Errorf("edge %d: no depth map for source frame %d", e, ii[e]))
		}
	}
	return err
}
