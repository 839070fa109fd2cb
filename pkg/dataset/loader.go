// Package dataset reads node-property-prediction graphs from their cached
// on-disk form and generates synthetic graphs for tests and demos.
// Downloading and cache management are outside this package: Load expects
// the files to already exist.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ritzau/gcn-trainer/pkg/graphdata"
	"github.com/ritzau/gcn-trainer/pkg/logging"
	"gonum.org/v1/gonum/mat"
)

// Load reads a graph from <dir>/<name>/raw/ in the standard benchmark
// CSV layout:
//
//	node-feat.csv   one row of F floats per node
//	node-label.csv  one integer class id per node
//	edge.csv        one "src,dst" undirected edge per row
//
// The edge list is symmetrized and sorted here, so the graph layer can
// build its sparse adjacency without re-validating order.
func Load(dir, name string) (*graphdata.Graph, error) {
	raw := filepath.Join(dir, name, "raw")

	features, err := readFeatures(filepath.Join(raw, "node-feat.csv"))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	n, _ := features.Dims()

	labels, numClasses, err := readLabels(filepath.Join(raw, "node-label.csv"), n)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	rows, cols, err := readEdges(filepath.Join(raw, "edge.csv"), n)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	logging.Info("dataset loaded",
		"dataset", name,
		"nodes", n,
		"edges", len(rows)/2,
		"classes", numClasses,
	)

	return graphdata.New(features, labels, rows, cols, numClasses)
}

func readFeatures(path string) (*mat.Dense, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no feature rows", path)
	}

	f := len(records[0])
	data := make([]float64, 0, len(records)*f)
	for i, rec := range records {
		if len(rec) != f {
			return nil, fmt.Errorf("%s: row %d has %d columns, want %d", path, i, len(rec), f)
		}
		for _, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
			}
			data = append(data, v)
		}
	}

	return mat.NewDense(len(records), f, data), nil
}

func readLabels(path string, n int) ([]int, int, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, 0, err
	}
	if len(records) != n {
		return nil, 0, fmt.Errorf("%s: %d labels for %d nodes", path, len(records), n)
	}

	labels := make([]int, n)
	numClasses := 0
	for i, rec := range records {
		if len(rec) != 1 {
			return nil, 0, fmt.Errorf("%s: row %d has %d columns, want 1", path, i, len(rec))
		}
		v, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, 0, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		if v < 0 {
			return nil, 0, fmt.Errorf("%s: row %d: negative class id %d", path, i, v)
		}
		labels[i] = v
		if v+1 > numClasses {
			numClasses = v + 1
		}
	}

	return labels, numClasses, nil
}

func readEdges(path string, n int) (rows, cols []int, err error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}

	rows = make([]int, 0, 2*len(records))
	cols = make([]int, 0, 2*len(records))
	for i, rec := range records {
		if len(rec) != 2 {
			return nil, nil, fmt.Errorf("%s: row %d has %d columns, want 2", path, i, len(rec))
		}
		u, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		v, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		if u < 0 || u >= n || v < 0 || v >= n {
			return nil, nil, fmt.Errorf("%s: row %d: edge (%d,%d) outside [0,%d)", path, i, u, v, n)
		}
		// Store both directions of the undirected edge
		rows = append(rows, u, v)
		cols = append(cols, v, u)
	}

	sortEdges(rows, cols)
	return rows, cols, nil
}

// sortEdges orders the symmetric edge list by (row, col).
func sortEdges(rows, cols []int) {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if rows[ia] != rows[ib] {
			return rows[ia] < rows[ib]
		}
		return cols[ia] < cols[ib]
	})

	sortedRows := make([]int, len(rows))
	sortedCols := make([]int, len(cols))
	for i, j := range idx {
		sortedRows[i] = rows[j]
		sortedCols[i] = cols[j]
	}
	copy(rows, sortedRows)
	copy(cols, sortedCols)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = false
	return r.ReadAll()
}
