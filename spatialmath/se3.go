package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// SE3 is a rigid 6-DoF transform backed by a unit dual quaternion. The real
// part carries the rotation, the dual part half the translation times the
// rotation, so composition is a single dual-quaternion multiply.
type SE3 struct {
	dq dualquat.Number
}

// NewSE3Identity returns the identity rigid transform. Since the real part of
// a unit dual quaternion must be a unit quaternion, not all zeroes, use this
// instead of &SE3{}.
func NewSE3Identity() *SE3 {
	return &SE3{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// NewSE3 builds a rigid transform from a rotation quaternion (normalized on
// entry) and a translation.
func NewSE3(rot quat.Number, t r3.Vector) *SE3 {
	rot = Normalize(rot)
	tq := quat.Number{Imag: t.X, Jmag: t.Y, Kmag: t.Z}
	return &SE3{dualquat.Number{
		Real: rot,
		Dual: quat.Scale(0.5, quat.Mul(tq, rot)),
	}}
}

// NewSE3FromTangent is the SE(3) exponential map over a 6-vector tangent
// ordered (translation, rotation).
func NewSE3FromTangent(xi []float64) *SE3 {
	v := r3.Vector{X: xi[0], Y: xi[1], Z: xi[2]}
	phi := r3.Vector{X: xi[3], Y: xi[4], Z: xi[5]}
	t := matVec(so3LeftJacobian(phi), v)
	return NewSE3(RotVecToQuat(phi), t)
}

// DoF returns 6.
func (g *SE3) DoF() int { return 6 }

// Rotation returns the rotation quaternion.
func (g *SE3) Rotation() quat.Number { return g.dq.Real }

// Translation returns the translation component.
func (g *SE3) Translation() r3.Vector {
	tq := quat.Scale(2, quat.Mul(g.dq.Dual, quat.Conj(g.dq.Real)))
	return r3.Vector{X: tq.Imag, Y: tq.Jmag, Z: tq.Kmag}
}

// Scale returns 1; rigid transforms carry no scale.
func (g *SE3) Scale() float64 { return 1 }

// Compose returns receiver * o. Rigid-rigid products stay on SE3; composing
// with a similarity transform promotes to Sim3.
func (g *SE3) Compose(o Pose) Pose {
	if o2, ok := o.(*SE3); ok {
		p := dualquat.Mul(g.dq, o2.dq)
		// products of unit dual quaternions drift off unit norm in floating
		// point; renormalize to stay on the manifold
		n := quatNorm(p.Real)
		p.Real = quat.Scale(1/n, p.Real)
		p.Dual = quat.Scale(1/n, p.Dual)
		return &SE3{p}
	}
	return g.toSim3().Compose(o)
}

// Inverse returns the inverse transform, the quaternion conjugate of both
// parts for a unit dual quaternion.
func (g *SE3) Inverse() Pose {
	return &SE3{dualquat.Number{
		Real: quat.Conj(g.dq.Real),
		Dual: quat.Conj(g.dq.Dual),
	}}
}

// Transform applies the rigid transform to a homogeneous point: R*p + W*t.
func (g *SE3) Transform(pt HomogeneousPoint) HomogeneousPoint {
	v := Rotate(g.dq.Real, pt.Vec3())
	t := g.Translation()
	return HomogeneousPoint{
		X: v.X + pt.W*t.X,
		Y: v.Y + pt.W*t.Y,
		Z: v.Z + pt.W*t.Z,
		W: pt.W,
	}
}

// TranslationOnly returns a transform with the same translation but identity
// rotation, used to isolate translational parallax.
func (g *SE3) TranslationOnly() Pose {
	return NewSE3(quat.Number{Real: 1}, g.Translation())
}

// Adjoint returns the 6x6 adjoint [[R, [t]x R], [0, R]] in (translation,
// rotation) tangent order.
func (g *SE3) Adjoint() *mat.Dense {
	r := RotationMatrix(g.dq.Real)
	var txr mat.Dense
	txr.Mul(skew(g.Translation()), r)

	ad := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ad.Set(i, j, r.At(i, j))
			ad.Set(i, j+3, txr.At(i, j))
			ad.Set(i+3, j+3, r.At(i, j))
		}
	}
	return ad
}

// AdjointTranspose transports the row-Jacobian j from the target frame's
// tangent space to the source frame's: j * Adjoint().
func (g *SE3) AdjointTranspose(j *mat.Dense) *mat.Dense {
	return adjointTransport(g, j)
}

// Matrix returns the 4x4 homogeneous matrix view of the transform.
func (g *SE3) Matrix() mgl64.Mat4 {
	r := RotationMatrix(g.dq.Real)
	t := g.Translation()
	m := mgl64.Ident4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, r.At(i, j))
		}
	}
	m.Set(0, 3, t.X)
	m.Set(1, 3, t.Y)
	m.Set(2, 3, t.Z)
	return m
}

// Log returns the 6-vector tangent coordinates (translation, rotation).
func (g *SE3) Log() []float64 {
	phi := QuatToRotVec(g.dq.Real)
	v := matVec(so3LeftJacobianInverse(phi), g.Translation())
	return []float64{v.X, v.Y, v.Z, phi.X, phi.Y, phi.Z}
}

func (g *SE3) toSim3() *Sim3 {
	return NewSim3(g.dq.Real, g.Translation(), 1)
}
