package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func randomSim3(r *rand.Rand) *Sim3 {
	phi := r3.Vector{
		X: r.NormFloat64(),
		Y: r.NormFloat64(),
		Z: r.NormFloat64(),
	}.Mul(0.5)
	t := r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
	return NewSim3(RotVecToQuat(phi), t, math.Exp(0.3*r.NormFloat64()))
}

func TestSim3Identity(t *testing.T) {
	id := NewSim3Identity()
	pt := HomogeneousPoint{X: 0.3, Y: -0.2, Z: 1, W: 0.7}
	test.That(t, id.Transform(pt), test.ShouldResemble, pt)
	test.That(t, id.DoF(), test.ShouldEqual, 7)
	test.That(t, id.Scale(), test.ShouldEqual, 1.0)
}

func TestSim3ComposeInverse(t *testing.T) {
	r := rand.New(rand.NewSource(10))
	for n := 0; n < 50; n++ {
		g := randomSim3(r)
		test.That(t, PoseAlmostEqual(g.Compose(g.Inverse()), NewSim3Identity(), 1e-9), test.ShouldBeTrue)
		test.That(t, PoseAlmostEqual(g.Inverse().Compose(g), NewSim3Identity(), 1e-9), test.ShouldBeTrue)
	}
}

func TestSim3Scale(t *testing.T) {
	g := NewSim3(quat.Number{Real: 1}, r3.Vector{}, 2)
	got := g.Transform(HomogeneousPoint{X: 1, Y: -1, Z: 3, W: 1})
	test.That(t, got.X, test.ShouldAlmostEqual, 2)
	test.That(t, got.Y, test.ShouldAlmostEqual, -2)
	test.That(t, got.Z, test.ShouldAlmostEqual, 6)
	test.That(t, got.W, test.ShouldAlmostEqual, 1)

	// scale composes multiplicatively
	gg := g.Compose(g)
	test.That(t, gg.Scale(), test.ShouldAlmostEqual, 4)
}

func TestSim3MixedComposeWithSE3(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	s := randomSim3(r)
	e := randomSE3(r)

	mixed := s.Compose(e)
	test.That(t, mixed.DoF(), test.ShouldEqual, 7)
	test.That(t, mixed.Scale(), test.ShouldAlmostEqual, s.Scale())

	promoted := e.Compose(s)
	test.That(t, promoted.DoF(), test.ShouldEqual, 7)
	test.That(t, promoted.Scale(), test.ShouldAlmostEqual, s.Scale())
}

func TestSim3ExpLogRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(12))
	for n := 0; n < 100; n++ {
		xi := make([]float64, 7)
		for i := range xi {
			xi[i] = r.NormFloat64()
		}
		// keep the rotation inside the chart and the scale factor sane
		for i := 3; i < 6; i++ {
			xi[i] *= 0.5
		}
		xi[6] *= 0.3
		back := NewSim3FromTangent(xi).Log()
		for i := range xi {
			test.That(t, back[i], test.ShouldAlmostEqual, xi[i], 1e-7)
		}
	}
}

func TestSim3AdjointProperty(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	for n := 0; n < 20; n++ {
		g := randomSim3(r)
		xi := make([]float64, 7)
		for i := range xi {
			xi[i] = 0.1 * r.NormFloat64()
		}

		lhs := g.Compose(NewSim3FromTangent(xi)).Compose(g.Inverse())

		ad := g.Adjoint()
		adXi := make([]float64, 7)
		for i := 0; i < 7; i++ {
			for j := 0; j < 7; j++ {
				adXi[i] += ad.At(i, j) * xi[j]
			}
		}
		rhs := NewSim3FromTangent(adXi)

		test.That(t, PoseAlmostEqual(lhs, rhs, 1e-7), test.ShouldBeTrue)
	}
}

func TestSim3TranslationOnly(t *testing.T) {
	g := NewSim3(RotVecToQuat(r3.Vector{X: 0.3}), r3.Vector{X: 1, Y: 2, Z: 3}, 1.5)
	tonly := g.TranslationOnly()
	test.That(t, tonly.Rotation(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, tonly.Scale(), test.ShouldEqual, 1.0)
	test.That(t, tonly.Translation().Sub(g.Translation()).Norm(), test.ShouldAlmostEqual, 0)
}

func TestDehomogenize(t *testing.T) {
	pt := HomogeneousPoint{X: 1, Y: 2, Z: 4, W: 2}
	v, ok := pt.Dehomogenize()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, v.Z, test.ShouldAlmostEqual, 2)

	_, ok = HomogeneousPoint{X: 1, W: 0}.Dehomogenize()
	test.That(t, ok, test.ShouldBeFalse)
}
