package graphdata

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSummarizeConnectedPath(t *testing.T) {
	g := pathGraph(t)
	s := Summarize(g)

	if s.Nodes != 3 {
		t.Errorf("Nodes = %d, want 3", s.Nodes)
	}
	if s.EdgePairs != 2 {
		t.Errorf("EdgePairs = %d, want 2", s.EdgePairs)
	}
	if s.Components != 1 {
		t.Errorf("Components = %d, want 1", s.Components)
	}
	if s.Isolated != 0 {
		t.Errorf("Isolated = %d, want 0", s.Isolated)
	}
	if s.MaxDegree != 2 {
		t.Errorf("MaxDegree = %g, want 2", s.MaxDegree)
	}
}

func TestSummarizeCountsIsolatedNodes(t *testing.T) {
	// One edge between 0 and 1; nodes 2 and 3 are isolated
	features := mat.NewDense(4, 1, nil)
	labels := []int{0, 0, 1, 1}
	g, err := New(features, labels, []int{0, 1}, []int{1, 0}, 2)
	require.NoError(t, err)

	s := Summarize(g)
	if s.Components != 3 {
		t.Errorf("Components = %d, want 3", s.Components)
	}
	if s.Isolated != 2 {
		t.Errorf("Isolated = %d, want 2", s.Isolated)
	}
	if s.EdgePairs != 1 {
		t.Errorf("EdgePairs = %d, want 1", s.EdgePairs)
	}
}
