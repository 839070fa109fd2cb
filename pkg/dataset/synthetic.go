package dataset

import (
	"fmt"
	"math/rand"

	"github.com/ritzau/gcn-trainer/pkg/graphdata"
	"gonum.org/v1/gonum/mat"
)

// Synthetic generates a seeded planted-community graph: each node gets a
// class, features drawn around a class-specific mean, and edges biased
// toward same-class neighbors. Useful for tests and smoke runs where the
// real benchmark is not on disk.
func Synthetic(nodes, features, classes, edgesPerNode int, rng *rand.Rand) (*graphdata.Graph, error) {
	if nodes <= 0 || features <= 0 || classes <= 0 {
		return nil, fmt.Errorf("synthetic graph needs positive dimensions, got %d nodes, %d features, %d classes",
			nodes, features, classes)
	}
	if edgesPerNode < 0 {
		return nil, fmt.Errorf("edgesPerNode must be non-negative, got %d", edgesPerNode)
	}

	labels := make([]int, nodes)
	for i := range labels {
		labels[i] = rng.Intn(classes)
	}

	// Class means on a simplex-ish layout: feature (c mod F) is shifted
	data := make([]float64, nodes*features)
	for i := 0; i < nodes; i++ {
		for j := 0; j < features; j++ {
			mean := 0.0
			if labels[i]%features == j {
				mean = 2.0
			}
			data[i*features+j] = mean + 0.5*rng.NormFloat64()
		}
	}
	featureMat := mat.NewDense(nodes, features, data)

	// Sample undirected edges, preferring same-class partners
	type pair struct{ u, v int }
	edgeSet := make(map[pair]bool)
	sameClass := make(map[int][]int)
	for i, c := range labels {
		sameClass[c] = append(sameClass[c], i)
	}

	for u := 0; u < nodes; u++ {
		for e := 0; e < edgesPerNode; e++ {
			var v int
			if peers := sameClass[labels[u]]; len(peers) > 1 && rng.Float64() < 0.75 {
				v = peers[rng.Intn(len(peers))]
			} else {
				v = rng.Intn(nodes)
			}
			if v == u {
				continue
			}
			a, b := u, v
			if b < a {
				a, b = b, a
			}
			edgeSet[pair{a, b}] = true
		}
	}

	rows := make([]int, 0, 2*len(edgeSet))
	cols := make([]int, 0, 2*len(edgeSet))
	for p := range edgeSet {
		rows = append(rows, p.u, p.v)
		cols = append(cols, p.v, p.u)
	}
	sortEdges(rows, cols)

	return graphdata.New(featureMat, labels, rows, cols, classes)
}
