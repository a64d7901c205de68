package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Sim3 is a 7-DoF similarity transform: rotation (unit quaternion),
// translation, and a positive scale. Used when the odometry problem has a
// free global scale (monocular sequences).
type Sim3 struct {
	rot   quat.Number
	t     r3.Vector
	scale float64
}

// NewSim3Identity returns the identity similarity transform.
func NewSim3Identity() *Sim3 {
	return &Sim3{rot: quat.Number{Real: 1}, scale: 1}
}

// NewSim3 builds a similarity transform from a rotation quaternion (normalized
// on entry), translation, and scale. Scale must be positive.
func NewSim3(rot quat.Number, t r3.Vector, scale float64) *Sim3 {
	return &Sim3{rot: Normalize(rot), t: t, scale: scale}
}

// NewSim3FromTangent is the Sim(3) exponential map over a 7-vector tangent
// ordered (translation, rotation, scale).
func NewSim3FromTangent(xi []float64) *Sim3 {
	v := r3.Vector{X: xi[0], Y: xi[1], Z: xi[2]}
	phi := r3.Vector{X: xi[3], Y: xi[4], Z: xi[5]}
	sigma := xi[6]
	scale := math.Exp(sigma)
	t := matVec(sim3W(phi, sigma, scale), v)
	return NewSim3(RotVecToQuat(phi), t, scale)
}

// DoF returns 7.
func (g *Sim3) DoF() int { return 7 }

// Rotation returns the rotation quaternion.
func (g *Sim3) Rotation() quat.Number { return g.rot }

// Translation returns the translation component.
func (g *Sim3) Translation() r3.Vector { return g.t }

// Scale returns the scale component.
func (g *Sim3) Scale() float64 { return g.scale }

// Compose returns receiver * o; the product of two similarity transforms is
// (s1*s2, R1*R2, s1*R1*t2 + t1).
func (g *Sim3) Compose(o Pose) Pose {
	t2 := Rotate(g.rot, o.Translation()).Mul(g.scale).Add(g.t)
	return NewSim3(quat.Mul(g.rot, o.Rotation()), t2, g.scale*o.Scale())
}

// Inverse returns the group inverse (1/s, R^-1, -(1/s) R^-1 t).
func (g *Sim3) Inverse() Pose {
	rInv := quat.Conj(g.rot)
	return NewSim3(rInv, Rotate(rInv, g.t).Mul(-1/g.scale), 1/g.scale)
}

// Transform applies the similarity transform to a homogeneous point:
// s*R*p + W*t.
func (g *Sim3) Transform(pt HomogeneousPoint) HomogeneousPoint {
	v := Rotate(g.rot, pt.Vec3()).Mul(g.scale)
	return HomogeneousPoint{
		X: v.X + pt.W*g.t.X,
		Y: v.Y + pt.W*g.t.Y,
		Z: v.Z + pt.W*g.t.Z,
		W: pt.W,
	}
}

// TranslationOnly returns a transform with the same translation but identity
// rotation and unit scale.
func (g *Sim3) TranslationOnly() Pose {
	return NewSim3(quat.Number{Real: 1}, g.t, 1)
}

// Adjoint returns the 7x7 adjoint [[sR, [t]x R, -t], [0, R, 0], [0, 0, 1]] in
// (translation, rotation, scale) tangent order.
func (g *Sim3) Adjoint() *mat.Dense {
	r := RotationMatrix(g.rot)
	var txr mat.Dense
	txr.Mul(skew(g.t), r)

	ad := mat.NewDense(7, 7, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ad.Set(i, j, g.scale*r.At(i, j))
			ad.Set(i, j+3, txr.At(i, j))
			ad.Set(i+3, j+3, r.At(i, j))
		}
	}
	ad.Set(0, 6, -g.t.X)
	ad.Set(1, 6, -g.t.Y)
	ad.Set(2, 6, -g.t.Z)
	ad.Set(6, 6, 1)
	return ad
}

// AdjointTranspose transports the row-Jacobian j from the target frame's
// tangent space to the source frame's: j * Adjoint().
func (g *Sim3) AdjointTranspose(j *mat.Dense) *mat.Dense {
	return adjointTransport(g, j)
}

// Matrix returns the 4x4 homogeneous matrix view [[sR, t], [0, 1]].
func (g *Sim3) Matrix() mgl64.Mat4 {
	r := RotationMatrix(g.rot)
	m := mgl64.Ident4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, g.scale*r.At(i, j))
		}
	}
	m.Set(0, 3, g.t.X)
	m.Set(1, 3, g.t.Y)
	m.Set(2, 3, g.t.Z)
	return m
}

// Log returns the 7-vector tangent coordinates (translation, rotation, scale).
func (g *Sim3) Log() []float64 {
	sigma := math.Log(g.scale)
	phi := QuatToRotVec(g.rot)
	w := sim3W(phi, sigma, g.scale)

	tv := mat.NewVecDense(3, []float64{g.t.X, g.t.Y, g.t.Z})
	var v mat.VecDense
	if err := v.SolveVec(w, tv); err != nil {
		// W is singular only at the edge of the chart (rotation of pi with
		// extreme scale); fall back to the translation itself
		v.CloneFromVec(tv)
	}
	return []float64{v.AtVec(0), v.AtVec(1), v.AtVec(2), phi.X, phi.Y, phi.Z, sigma}
}

// sim3W returns the similarity left-Jacobian-like matrix W such that
// t = W * upsilon in the Sim(3) exponential, W = A [phi]x + B [phi]x^2 + C I.
func sim3W(phi r3.Vector, sigma, scale float64) *mat.Dense {
	theta := phi.Norm()
	var a, b, c float64
	switch {
	case math.Abs(sigma) < smallAngleEpsilon:
		c = 1
		if theta < smallAngleEpsilon {
			a = 0.5
			b = 1.0 / 6
		} else {
			a = (1 - math.Cos(theta)) / (theta * theta)
			b = (theta - math.Sin(theta)) / (theta * theta * theta)
		}
	case theta < smallAngleEpsilon:
		c = (scale - 1) / sigma
		sigma2 := sigma * sigma
		a = ((sigma-1)*scale + 1) / sigma2
		b = ((0.5*sigma2-sigma+1)*scale - 1) / (sigma2 * sigma)
	default:
		c = (scale - 1) / sigma
		sa := scale * math.Sin(theta)
		sb := scale * math.Cos(theta)
		d := theta*theta + sigma*sigma
		a = (sa*sigma + (1-sb)*theta) / (theta * d)
		b = (c - ((sb-1)*sigma+sa*theta)/d) / (theta * theta)
	}

	px := skew(phi)
	var px2 mat.Dense
	px2.Mul(px, px)

	w := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			e := a*px.At(i, j) + b*px2.At(i, j)
			if i == j {
				e += c
			}
			w.Set(i, j, e)
		}
	}
	return w
}
