package projective

import (
	"context"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/patchvo/patchvo/spatialmath"
	"github.com/patchvo/patchvo/transform"
	"github.com/patchvo/patchvo/utils"
)

// Options controls the sparse transform path.
type Options struct {
	// WithDepth additionally returns the inverse depth of each reprojected
	// point.
	WithDepth bool
	// TranslationOnly zeroes the rotation (and scale) of every relative
	// transform before applying it, isolating translational parallax.
	TranslationOnly bool
}

// Result holds the reprojection output for every edge of a visibility graph,
// in edge order.
type Result struct {
	// Pixels are the reprojected pixel coordinates.
	Pixels []r2.Point
	// Depths are the inverse depths of the transformed points; nil unless
	// Options.WithDepth was set.
	Depths []float64
	// Valid is false where the transformed point fell at or below the
	// minimum depth. Invalid entries still carry bounded pixel values; weight
	// them to zero downstream instead of dropping the edge.
	Valid []bool
}

// Jacobians holds, per edge, the linearization of the reprojection residual:
// Ji and Jj are 2xDoF blocks with respect to the source and target pose
// tangents, Jz is the 2x1 block with respect to the patch inverse depth. They
// are recomputed from current estimates on every call, never cached.
type Jacobians struct {
	Ji []*mat.Dense
	Jj []*mat.Dense
	Jz []*mat.Dense
}

// Transform reprojects each patch of the visibility graph from its source
// frame into its target frame under the current pose estimates: the patch is
// back-projected with the source frame's intrinsics, moved through
// Gij = pose[j] * pose[i]^-1, and projected with the target frame's
// intrinsics. Poses map world coordinates into each camera's frame.
func Transform(
	ctx context.Context,
	poses []spatialmath.Pose,
	patches []Patch,
	intrinsics []transform.PinholeCameraIntrinsics,
	g *VisibilityGraph,
	opts Options,
) (*Result, error) {
	if err := validateBuffers(poses, patches, intrinsics, g); err != nil {
		return nil, err
	}

	res := newResult(g.Len(), opts.WithDepth)
	//nolint:errcheck
	utils.ForEachParallel(ctx, g.Len(), func(e int) {
		ec := transformEdge(poses, patches, intrinsics, g, e, opts.TranslationOnly)
		res.Pixels[e] = ec.pix
		res.Valid[e] = ec.valid
		if opts.WithDepth {
			res.Depths[e] = ec.invDepth
		}
	})
	return res, nil
}

// TransformWithJacobians is Transform plus the analytic derivative chain: for
// every edge it returns the 2xDoF Jacobians of the reprojected pixel with
// respect to perturbations of the target pose (Jj), of the source pose (Ji,
// transported through the adjoint of the relative transform with a sign
// flip), and of the patch inverse depth (Jz).
func TransformWithJacobians(
	ctx context.Context,
	poses []spatialmath.Pose,
	patches []Patch,
	intrinsics []transform.PinholeCameraIntrinsics,
	g *VisibilityGraph,
	opts Options,
) (*Result, *Jacobians, error) {
	if err := validateBuffers(poses, patches, intrinsics, g); err != nil {
		return nil, nil, err
	}

	res := newResult(g.Len(), opts.WithDepth)
	jac := &Jacobians{
		Ji: make([]*mat.Dense, g.Len()),
		Jj: make([]*mat.Dense, g.Len()),
		Jz: make([]*mat.Dense, g.Len()),
	}
	//nolint:errcheck
	utils.ForEachParallel(ctx, g.Len(), func(e int) {
		ec := transformEdge(poses, patches, intrinsics, g, e, opts.TranslationOnly)
		res.Pixels[e] = ec.pix
		res.Valid[e] = ec.valid
		if opts.WithDepth {
			res.Depths[e] = ec.invDepth
		}

		jp := intrinsics[g.JJ[e]].ProjectionJacobian(ec.x1)

		jj := mat.NewDense(2, ec.gij.DoF(), nil)
		jj.Mul(jp, actionJacobian(ec.x1, ec.gij.DoF()))
		ji := ec.gij.AdjointTranspose(jj)
		// perturbing the source frame acts oppositely on the composed
		// transform, hence the sign flip
		ji.Scale(-1, ji)

		jz := mat.NewDense(2, 1, nil)
		jz.Mul(jp, translationColumn(ec.gij))

		jac.Jj[e] = jj
		jac.Ji[e] = ji
		jac.Jz[e] = jz
	})
	return res, jac, nil
}

// edgeComputation is the intermediate state of one sparse edge: the relative
// transform, the transformed point, the reprojected pixel with inverse depth,
// and the validity flag (transformed Z above the minimum depth).
type edgeComputation struct {
	gij      spatialmath.Pose
	x1       spatialmath.HomogeneousPoint
	pix      r2.Point
	invDepth float64
	valid    bool
}

func transformEdge(
	poses []spatialmath.Pose,
	patches []Patch,
	intrinsics []transform.PinholeCameraIntrinsics,
	g *VisibilityGraph,
	e int,
	tonly bool,
) edgeComputation {
	i, j, k := g.II[e], g.JJ[e], g.KK[e]

	x0 := intrinsics[i].BackProject(patches[k].X, patches[k].Y, patches[k].Depth)
	gij := poses[j].Compose(poses[i].Inverse())
	if tonly {
		gij = gij.TranslationOnly()
	}
	x1 := gij.Transform(x0)
	pix, d := intrinsics[j].ProjectWithDepth(x1)
	return edgeComputation{
		gij:      gij,
		x1:       x1,
		pix:      pix,
		invDepth: d,
		valid:    x1.Z > transform.MinDepth,
	}
}

// actionJacobian returns the 4xDoF derivative of the homogeneous point under
// the group generators evaluated at pt, in (translation, rotation[, scale])
// tangent order: translations shift by the homogeneous W, rotations couple
// the spatial coordinates through the cross product, scale rescales them.
func actionJacobian(pt spatialmath.HomogeneousPoint, dof int) *mat.Dense {
	x, y, z, h := pt.X, pt.Y, pt.Z, pt.W
	ja := mat.NewDense(4, dof, nil)
	ja.Set(0, 0, h)
	ja.Set(1, 1, h)
	ja.Set(2, 2, h)
	ja.Set(0, 4, z)
	ja.Set(0, 5, -y)
	ja.Set(1, 3, -z)
	ja.Set(1, 5, x)
	ja.Set(2, 3, y)
	ja.Set(2, 4, -x)
	if dof == 7 {
		ja.Set(0, 6, x)
		ja.Set(1, 6, y)
		ja.Set(2, 6, z)
	}
	return ja
}

// translationColumn returns the last column of the pose's 4x4 matrix, the
// derivative of the transformed homogeneous point with respect to the patch
// inverse depth.
func translationColumn(g spatialmath.Pose) *mat.Dense {
	m := g.Matrix()
	return mat.NewDense(4, 1, []float64{m.At(0, 3), m.At(1, 3), m.At(2, 3), m.At(3, 3)})
}

func newResult(n int, withDepth bool) *Result {
	res := &Result{
		Pixels: make([]r2.Point, n),
		Valid:  make([]bool, n),
	}
	if withDepth {
		res.Depths = make([]float64, n)
	}
	return res
}

func validateBuffers(
	poses []spatialmath.Pose,
	patches []Patch,
	intrinsics []transform.PinholeCameraIntrinsics,
	g *VisibilityGraph,
) error {
	if len(intrinsics) != len(poses) {
		return errors.Errorf("need one set of intrinsics per frame, got %d intrinsics for %d poses",
			len(intrinsics), len(poses))
	}
	return g.Validate(len(poses), len(patches))
}
