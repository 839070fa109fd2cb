package graphdata

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the structure of a graph after loading or subgraph
// extraction. Component count is computed on the undirected co-purchase
// topology, ignoring edge direction in the stored symmetric list.
type Stats struct {
	Nodes      int
	EdgePairs  int // undirected edges (stored entries / 2 for a symmetric list)
	Components int
	Isolated   int // nodes with no neighbors
	MeanDegree float64
	MaxDegree  float64
}

// Summarize computes structural statistics for the graph.
func Summarize(g *Graph) Stats {
	n := g.NumNodes()

	degrees := make([]float64, n)
	ug := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		ug.AddNode(simple.Node(i))
	}
	for i, r := range g.rows {
		c := g.cols[i]
		degrees[r]++
		if r < c {
			ug.SetEdge(simple.Edge{F: simple.Node(r), T: simple.Node(c)})
		}
	}

	isolated := 0
	for _, d := range degrees {
		if d == 0 {
			isolated++
		}
	}

	var maxDeg float64
	if n > 0 {
		maxDeg = floats.Max(degrees)
	}

	return Stats{
		Nodes:      n,
		EdgePairs:  len(g.rows) / 2,
		Components: len(topo.ConnectedComponents(ug)),
		Isolated:   isolated,
		MeanDegree: stat.Mean(degrees, nil),
		MaxDegree:  maxDeg,
	}
}
