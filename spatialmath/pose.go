// Package spatialmath defines the spatial mathematical operations used by the
// odometry core: rigid (SE3) and similarity (Sim3) transforms represented with
// minimal parameterizations, homogeneous points, and the tangent-space maps
// needed to move Jacobians between camera frames.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// HomogeneousPoint is a 4-component point (X, Y, Z, W) in a camera frame. W
// scales the translational part of a transform, so a back-projected pixel with
// inverse depth d is stored as (xn, yn, 1, d) and the group action becomes
// p' = s*R*p + W*t. Points at infinity carry W = 0.
type HomogeneousPoint struct {
	X, Y, Z, W float64
}

// Vec3 returns the unscaled (X, Y, Z) part of the point.
func (p HomogeneousPoint) Vec3() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Dehomogenize returns the Euclidean point (X, Y, Z)/W. The boolean is false
// when W is too close to zero for the division to mean anything.
func (p HomogeneousPoint) Dehomogenize() (r3.Vector, bool) {
	if math.Abs(p.W) < 1e-12 {
		return r3.Vector{}, false
	}
	return r3.Vector{X: p.X / p.W, Y: p.Y / p.W, Z: p.Z / p.W}, true
}

// Pose is an element of a transformation Lie group: SE3 (6 degrees of freedom)
// or Sim3 (7, including scale). Implementations keep a minimal parameterization
// (unit quaternion plus translation, plus scale for Sim3); raw 4x4 matrices are
// only ever produced as read-only views via Matrix.
type Pose interface {
	// DoF returns the dimension of the tangent space (6 for SE3, 7 for Sim3).
	DoF() int
	// Rotation returns the unit rotation quaternion.
	Rotation() quat.Number
	// Translation returns the translation component.
	Translation() r3.Vector
	// Scale returns the scale component (always 1 for SE3).
	Scale() float64

	// Compose returns the group product receiver * o (o applied first).
	Compose(o Pose) Pose
	// Inverse returns the group inverse.
	Inverse() Pose
	// Transform applies the pose to a homogeneous point: s*R*p + W*t.
	Transform(pt HomogeneousPoint) HomogeneousPoint
	// TranslationOnly returns a pose with the same translation but identity
	// rotation and unit scale.
	TranslationOnly() Pose

	// Adjoint returns the DoF x DoF adjoint matrix of the pose, in tangent
	// order (translation, rotation[, scale]).
	Adjoint() *mat.Dense
	// AdjointTranspose transports a row-Jacobian j (rows are gradients in the
	// receiver's target tangent space) into the source tangent space; for row
	// vectors this is j * Adjoint().
	AdjointTranspose(j *mat.Dense) *mat.Dense

	// Matrix returns the 4x4 homogeneous matrix of the pose.
	Matrix() mgl64.Mat4
	// Log returns the tangent-space coordinates of the pose, ordered
	// (translation, rotation[, scale]).
	Log() []float64
}

// PoseAlmostEqual reports whether two poses agree in rotation, translation and
// scale within tol.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	if a.DoF() != b.DoF() {
		return false
	}
	if !QuaternionAlmostEqual(a.Rotation(), b.Rotation(), tol) {
		return false
	}
	if a.Translation().Sub(b.Translation()).Norm() > tol {
		return false
	}
	return math.Abs(a.Scale()-b.Scale()) <= tol
}

// QuaternionAlmostEqual reports whether two unit quaternions represent the
// same rotation within tol, treating q and -q as equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	if quatNorm(quat.Sub(a, b)) <= tol {
		return true
	}
	return quatNorm(quat.Add(a, b)) <= tol
}

func adjointTransport(g Pose, j *mat.Dense) *mat.Dense {
	rows, _ := j.Dims()
	out := mat.NewDense(rows, g.DoF(), nil)
	out.Mul(j, g.Adjoint())
	return out
}
