package projective

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// VisibilityGraph is a set of directed edges (i, j, k): the patch indexed by
// KK[e], hosted in frame II[e], is reprojected into frame JJ[e]. The three
// index slices are parallel and stay fixed across refinement iterations;
// degenerate edges are masked by validity flags, never dropped.
type VisibilityGraph struct {
	II []int
	JJ []int
	KK []int
}

// NewVisibilityGraph builds a graph from parallel index slices, which must all
// have the same length.
func NewVisibilityGraph(ii, jj, kk []int) (*VisibilityGraph, error) {
	if len(ii) != len(jj) || len(ii) != len(kk) {
		return nil, errors.Errorf("visibility graph index slices must have equal length, got ii=%d jj=%d kk=%d",
			len(ii), len(jj), len(kk))
	}
	return &VisibilityGraph{II: ii, JJ: jj, KK: kk}, nil
}

// Len returns the number of edges.
func (g *VisibilityGraph) Len() int {
	return len(g.II)
}

// Validate checks every edge against the supplied buffer sizes. An invalid
// graph is a caller bug, so all offending edges are reported at once.
func (g *VisibilityGraph) Validate(numFrames, numPatches int) error {
	if len(g.II) != len(g.JJ) || len(g.II) != len(g.KK) {
		return errors.Errorf("visibility graph index slices must have equal length, got ii=%d jj=%d kk=%d",
			len(g.II), len(g.JJ), len(g.KK))
	}
	var err error
	for e := range g.II {
		if g.II[e] < 0 || g.II[e] >= numFrames {
			err = multierr.Append(err, errors.Errorf("edge %d: source frame %d out of range [0,%d)", e, g.II[e], numFrames))
		}
		if g.JJ[e] < 0 || g.JJ[e] >= numFrames {
			err = multierr.Append(err, errors.Errorf("edge %d: target frame %d out of range [0,%d)", e, g.JJ[e], numFrames))
		}
		if g.KK[e] < 0 || g.KK[e] >= numPatches {
			err = multierr.Append(err, errors.Errorf("edge %d: patch %d out of range [0,%d)", e, g.KK[e], numPatches))
		}
	}
	return err
}

// hostView returns a graph with every edge retargeted at its own source
// frame, used to reproject patches into their host frames.
func (g *VisibilityGraph) hostView() *VisibilityGraph {
	return &VisibilityGraph{II: g.II, JJ: g.II, KK: g.KK}
}
