package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Below this angle (radians) the exp/log maps switch to their Taylor expansions.
const smallAngleEpsilon = 1e-8

func quatNorm(q quat.Number) float64 {
	return math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalize returns q scaled to unit norm. The zero quaternion normalizes to
// the identity rotation rather than dividing by zero.
func Normalize(q quat.Number) quat.Number {
	n := quatNorm(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// Rotate applies the unit quaternion q to the vector v.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// RotVecToQuat is the SO(3) exponential map: it converts a rotation vector
// (axis scaled by angle, radians) to a unit quaternion.
func RotVecToQuat(phi r3.Vector) quat.Number {
	theta := phi.Norm()
	var s float64
	if theta < smallAngleEpsilon {
		// sin(t/2)/t -> 1/2 - t^2/48
		s = 0.5 - theta*theta/48
	} else {
		s = math.Sin(theta/2) / theta
	}
	return quat.Number{
		Real: math.Cos(theta / 2),
		Imag: s * phi.X,
		Jmag: s * phi.Y,
		Kmag: s * phi.Z,
	}
}

// QuatToRotVec is the SO(3) logarithm map: it converts a unit quaternion to a
// rotation vector. The chart is valid for rotations up to pi.
func QuatToRotVec(q quat.Number) r3.Vector {
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	vNorm := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if vNorm < smallAngleEpsilon {
		// theta/sin(theta/2) -> 2 + vNorm^2/3 for small angles
		k := 2 + vNorm*vNorm/3
		return r3.Vector{X: k * q.Imag, Y: k * q.Jmag, Z: k * q.Kmag}
	}
	theta := 2 * math.Atan2(vNorm, q.Real)
	k := theta / vNorm
	return r3.Vector{X: k * q.Imag, Y: k * q.Jmag, Z: k * q.Kmag}
}

// RotationMatrix returns the 3x3 rotation matrix of a unit quaternion.
func RotationMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// skew returns the cross-product matrix [v]x.
func skew(v r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

// so3LeftJacobian returns V(phi) = I + (1-cos t)/t^2 [phi]x + (t - sin t)/t^3 [phi]x^2,
// the left Jacobian of SO(3) relating rotation-vector increments to translations
// in the SE(3) exponential.
func so3LeftJacobian(phi r3.Vector) *mat.Dense {
	theta := phi.Norm()
	var a, b float64
	if theta < smallAngleEpsilon {
		a = 0.5 - theta*theta/24
		b = 1.0/6 - theta*theta/120
	} else {
		a = (1 - math.Cos(theta)) / (theta * theta)
		b = (theta - math.Sin(theta)) / (theta * theta * theta)
	}
	px := skew(phi)
	var px2 mat.Dense
	px2.Mul(px, px)

	v := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			e := a*px.At(i, j) + b*px2.At(i, j)
			if i == j {
				e++
			}
			v.Set(i, j, e)
		}
	}
	return v
}

// so3LeftJacobianInverse returns V(phi)^-1 in closed form.
func so3LeftJacobianInverse(phi r3.Vector) *mat.Dense {
	theta := phi.Norm()
	var b float64
	if theta < smallAngleEpsilon {
		b = 1.0/12 + theta*theta/720
	} else {
		b = (1 - theta*math.Sin(theta)/(2*(1-math.Cos(theta)))) / (theta * theta)
	}
	px := skew(phi)
	var px2 mat.Dense
	px2.Mul(px, px)

	v := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			e := -0.5*px.At(i, j) + b*px2.At(i, j)
			if i == j {
				e++
			}
			v.Set(i, j, e)
		}
	}
	return v
}

func matVec(m *mat.Dense, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}
