package projective

import (
	"testing"

	"go.viam.com/test"
)

func TestNewVisibilityGraph(t *testing.T) {
	g, err := NewVisibilityGraph([]int{0, 1}, []int{1, 0}, []int{0, 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Len(), test.ShouldEqual, 2)

	_, err = NewVisibilityGraph([]int{0, 1}, []int{1}, []int{0, 3})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "equal length")
}

func TestVisibilityGraphValidate(t *testing.T) {
	g := &VisibilityGraph{II: []int{0, 1, 2}, JJ: []int{1, 2, 0}, KK: []int{0, 1, 2}}
	test.That(t, g.Validate(3, 3), test.ShouldBeNil)

	// every offending edge is reported, not just the first
	bad := &VisibilityGraph{
		II: []int{-1, 0, 5},
		JJ: []int{0, 9, 0},
		KK: []int{0, 0, 7},
	}
	err := bad.Validate(3, 3)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "edge 0: source frame -1")
	test.That(t, err.Error(), test.ShouldContainSubstring, "edge 1: target frame 9")
	test.That(t, err.Error(), test.ShouldContainSubstring, "edge 2: source frame 5")
	test.That(t, err.Error(), test.ShouldContainSubstring, "edge 2: patch 7")
}

func TestVisibilityGraphHostView(t *testing.T) {
	g := &VisibilityGraph{II: []int{0, 2}, JJ: []int{1, 3}, KK: []int{4, 5}}
	hv := g.hostView()
	test.That(t, hv.JJ, test.ShouldResemble, g.II)
	test.That(t, hv.II, test.ShouldResemble, g.II)
	test.That(t, hv.KK, test.ShouldResemble, g.KK)
}
