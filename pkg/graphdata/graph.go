package graphdata

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// Graph is an undirected, unweighted node-classification graph: a dense
// node feature matrix, one integer class label per node, and the
// GCN-normalized sparse adjacency used for message passing.
type Graph struct {
	Features   *mat.Dense  // N × F node features
	Labels     []int       // N class labels in [0, NumClasses)
	Adj        *sparse.CSR // N × N, D̃^-1/2 (A+I) D̃^-1/2
	NumClasses int

	// Raw edge list, symmetric (both directions stored), sorted by
	// (row, col). Kept for subgraph extraction and statistics.
	rows, cols []int
}

// New assembles a graph from a feature matrix, labels, and a symmetric
// edge list sorted by (row, col). The sort order is trusted: the CSR
// adjacency is built directly from it without re-validation, so an
// unsorted list produces a malformed matrix.
func New(features *mat.Dense, labels []int, rows, cols []int, numClasses int) (*Graph, error) {
	n, _ := features.Dims()
	if len(labels) != n {
		return nil, fmt.Errorf("got %d labels for %d nodes", len(labels), n)
	}
	if len(rows) != len(cols) {
		return nil, fmt.Errorf("edge list mismatch: %d rows, %d cols", len(rows), len(cols))
	}

	return &Graph{
		Features:   features,
		Labels:     labels,
		Adj:        normalizedAdjacency(n, rows, cols),
		NumClasses: numClasses,
		rows:       rows,
		cols:       cols,
	}, nil
}

// NumNodes returns the number of nodes N.
func (g *Graph) NumNodes() int {
	n, _ := g.Features.Dims()
	return n
}

// NumFeatures returns the feature dimension F.
func (g *Graph) NumFeatures() int {
	_, f := g.Features.Dims()
	return f
}

// NumEdges returns the number of stored directed edge entries (twice the
// undirected edge count for a symmetric list).
func (g *Graph) NumEdges() int {
	return len(g.rows)
}

// Edges returns the raw symmetric edge list.
func (g *Graph) Edges() (rows, cols []int) {
	return g.rows, g.cols
}

// Subgraph returns the graph induced on node positions [0, k): features
// and labels sliced, and only the edges with both endpoints below k
// retained. Slicing a sorted edge list keeps it sorted, so the reduced
// adjacency is rebuilt under the same trusted-order assumption.
func (g *Graph) Subgraph(k int) (*Graph, error) {
	n := g.NumNodes()
	if k <= 0 || k > n {
		return nil, fmt.Errorf("subgraph size %d out of range (1..%d)", k, n)
	}

	var rows, cols []int
	for i, r := range g.rows {
		if r < k && g.cols[i] < k {
			rows = append(rows, r)
			cols = append(cols, g.cols[i])
		}
	}

	features := mat.DenseCopyOf(g.Features.Slice(0, k, 0, g.NumFeatures()))
	labels := make([]int, k)
	copy(labels, g.Labels[:k])

	return &Graph{
		Features:   features,
		Labels:     labels,
		Adj:        normalizedAdjacency(k, rows, cols),
		NumClasses: g.NumClasses,
		rows:       rows,
		cols:       cols,
	}, nil
}

// normalizedAdjacency builds D̃^-1/2 (A+I) D̃^-1/2 in CSR form from a
// sorted symmetric edge list, inserting the self loop of each node at its
// sorted position within the row.
func normalizedAdjacency(n int, rows, cols []int) *sparse.CSR {
	// Degree of A+I counts the self loop
	deg := make([]float64, n)
	for i := range deg {
		deg[i] = 1
	}
	for _, r := range rows {
		deg[r]++
	}

	invSqrt := make([]float64, n)
	for i, d := range deg {
		invSqrt[i] = 1 / math.Sqrt(d)
	}

	nnz := len(rows) + n
	ia := make([]int, n+1)
	ja := make([]int, 0, nnz)
	data := make([]float64, 0, nnz)

	e := 0
	for i := 0; i < n; i++ {
		placedDiag := false
		for e < len(rows) && rows[e] == i {
			j := cols[e]
			if !placedDiag && j > i {
				ja = append(ja, i)
				data = append(data, invSqrt[i]*invSqrt[i])
				placedDiag = true
			}
			ja = append(ja, j)
			data = append(data, invSqrt[i]*invSqrt[j])
			e++
		}
		if !placedDiag {
			ja = append(ja, i)
			data = append(data, invSqrt[i]*invSqrt[i])
		}
		ia[i+1] = len(ja)
	}

	return sparse.NewCSR(n, n, ia, ja, data)
}
