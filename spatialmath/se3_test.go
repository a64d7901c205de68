package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func randomSE3(r *rand.Rand) *SE3 {
	phi := r3.Vector{
		X: r.NormFloat64(),
		Y: r.NormFloat64(),
		Z: r.NormFloat64(),
	}.Mul(0.5)
	t := r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
	return NewSE3(RotVecToQuat(phi), t)
}

func TestSE3Identity(t *testing.T) {
	id := NewSE3Identity()
	pt := HomogeneousPoint{X: 0.3, Y: -0.2, Z: 1, W: 0.7}
	test.That(t, id.Transform(pt), test.ShouldResemble, pt)
	test.That(t, id.DoF(), test.ShouldEqual, 6)
	test.That(t, id.Scale(), test.ShouldEqual, 1.0)

	for _, v := range id.Log() {
		test.That(t, v, test.ShouldAlmostEqual, 0)
	}
}

func TestSE3ComposeInverse(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		g := randomSE3(r)
		gInv := g.Inverse()
		test.That(t, PoseAlmostEqual(g.Compose(gInv), NewSE3Identity(), 1e-10), test.ShouldBeTrue)
		test.That(t, PoseAlmostEqual(gInv.Compose(g), NewSE3Identity(), 1e-10), test.ShouldBeTrue)
	}
}

func TestSE3ComposeAssociative(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	a, b, c := randomSE3(r), randomSE3(r), randomSE3(r)
	ab := a.Compose(b).Compose(c)
	bc := a.Compose(b.Compose(c))
	test.That(t, PoseAlmostEqual(ab, bc, 1e-10), test.ShouldBeTrue)
}

func TestSE3Transform(t *testing.T) {
	// 90 degrees about z: (1, 0, 0) -> (0, 1, 0)
	g := NewSE3(RotVecToQuat(r3.Vector{Z: math.Pi / 2}), r3.Vector{X: 1, Y: 2, Z: 3})
	got := g.Transform(HomogeneousPoint{X: 1, W: 1})
	test.That(t, got.X, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, 3, 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, 3, 1e-12)
	test.That(t, got.W, test.ShouldAlmostEqual, 1)

	// W scales the translation
	got = g.Transform(HomogeneousPoint{X: 1, W: 0.5})
	test.That(t, got.X, test.ShouldAlmostEqual, 0.5, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, 2, 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, 1.5, 1e-12)

	// a point at infinity only rotates
	got = g.Transform(HomogeneousPoint{X: 1, W: 0})
	test.That(t, got.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, got.W, test.ShouldEqual, 0.0)
}

func TestSE3ExpLogRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for n := 0; n < 100; n++ {
		xi := make([]float64, 6)
		for i := range xi {
			xi[i] = r.NormFloat64()
		}
		// keep the rotation inside the chart (angle below pi)
		for i := 3; i < 6; i++ {
			xi[i] *= 0.5
		}
		back := NewSE3FromTangent(xi).Log()
		for i := range xi {
			test.That(t, back[i], test.ShouldAlmostEqual, xi[i], 1e-8)
		}
	}
}

func TestSE3LogOfTranslation(t *testing.T) {
	g := NewSE3(quat.Number{Real: 1}, r3.Vector{X: 1, Y: -2, Z: 0.5})
	xi := g.Log()
	test.That(t, xi[0], test.ShouldAlmostEqual, 1)
	test.That(t, xi[1], test.ShouldAlmostEqual, -2)
	test.That(t, xi[2], test.ShouldAlmostEqual, 0.5)
	test.That(t, xi[3], test.ShouldAlmostEqual, 0)
	test.That(t, xi[4], test.ShouldAlmostEqual, 0)
	test.That(t, xi[5], test.ShouldAlmostEqual, 0)
}

// The adjoint must satisfy g * exp(xi) * g^-1 = exp(Ad(g) xi).
func TestSE3AdjointProperty(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for n := 0; n < 20; n++ {
		g := randomSE3(r)
		xi := make([]float64, 6)
		for i := range xi {
			xi[i] = 0.1 * r.NormFloat64()
		}

		lhs := g.Compose(NewSE3FromTangent(xi)).Compose(g.Inverse())

		ad := g.Adjoint()
		adXi := make([]float64, 6)
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				adXi[i] += ad.At(i, j) * xi[j]
			}
		}
		rhs := NewSE3FromTangent(adXi)

		test.That(t, PoseAlmostEqual(lhs, rhs, 1e-8), test.ShouldBeTrue)
	}
}

func TestSE3TranslationOnly(t *testing.T) {
	g := NewSE3(RotVecToQuat(r3.Vector{X: 0.4, Y: -0.1, Z: 0.2}), r3.Vector{X: 1, Y: 2, Z: 3})
	tonly := g.TranslationOnly()
	test.That(t, tonly.Rotation(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, tonly.Translation().Sub(g.Translation()).Norm(), test.ShouldAlmostEqual, 0)
}

func TestSE3Matrix(t *testing.T) {
	g := NewSE3(RotVecToQuat(r3.Vector{Z: math.Pi / 2}), r3.Vector{X: 1, Y: 2, Z: 3})
	m := g.Matrix()
	test.That(t, m.At(0, 1), test.ShouldAlmostEqual, -1, 1e-12)
	test.That(t, m.At(1, 0), test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, m.At(2, 2), test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, m.At(0, 3), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(1, 3), test.ShouldAlmostEqual, 2)
	test.That(t, m.At(2, 3), test.ShouldAlmostEqual, 3)
	test.That(t, m.At(3, 3), test.ShouldAlmostEqual, 1)
}

func TestQuatRotVecRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for n := 0; n < 100; n++ {
		phi := r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
		// keep within the chart (rotations up to pi)
		if phi.Norm() > 3 {
			phi = phi.Normalize().Mul(3)
		}
		back := QuatToRotVec(RotVecToQuat(phi))
		test.That(t, back.Sub(phi).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	}

	// tiny rotations stay numerically stable
	tiny := r3.Vector{X: 1e-12, Y: -2e-12, Z: 3e-13}
	back := QuatToRotVec(RotVecToQuat(tiny))
	test.That(t, back.Sub(tiny).Norm(), test.ShouldBeLessThan, 1e-15)
}
