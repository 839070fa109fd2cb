package dataset

import (
	"math/rand"
	"testing"
)

func TestSyntheticShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g, err := Synthetic(20, 4, 3, 2, rng)
	if err != nil {
		t.Fatalf("Synthetic() error: %v", err)
	}

	if g.NumNodes() != 20 {
		t.Errorf("NumNodes = %d, want 20", g.NumNodes())
	}
	if g.NumFeatures() != 4 {
		t.Errorf("NumFeatures = %d, want 4", g.NumFeatures())
	}
	if g.NumClasses != 3 {
		t.Errorf("NumClasses = %d, want 3", g.NumClasses)
	}

	for i, l := range g.Labels {
		if l < 0 || l >= 3 {
			t.Errorf("label[%d] = %d outside [0,3)", i, l)
		}
	}

	// Symmetric, in-range, no self loops
	rows, cols := g.Edges()
	seen := make(map[[2]int]bool)
	for i := range rows {
		if rows[i] == cols[i] {
			t.Errorf("self loop at node %d", rows[i])
		}
		if rows[i] < 0 || rows[i] >= 20 || cols[i] < 0 || cols[i] >= 20 {
			t.Errorf("edge (%d,%d) out of range", rows[i], cols[i])
		}
		seen[[2]int{rows[i], cols[i]}] = true
	}
	for e := range seen {
		if !seen[[2]int{e[1], e[0]}] {
			t.Errorf("edge (%d,%d) has no reverse entry", e[0], e[1])
		}
	}
}

func TestSyntheticSeededDeterminism(t *testing.T) {
	a, err := Synthetic(15, 3, 2, 2, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("Synthetic() error: %v", err)
	}
	b, err := Synthetic(15, 3, 2, 2, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("Synthetic() error: %v", err)
	}

	aRows, _ := a.Edges()
	bRows, _ := b.Edges()
	if len(aRows) != len(bRows) {
		t.Fatalf("same seed produced %d vs %d edge entries", len(aRows), len(bRows))
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Fatalf("same seed produced different labels at node %d", i)
		}
	}
}

func TestSyntheticRejectsBadDimensions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := Synthetic(0, 4, 3, 2, rng); err == nil {
		t.Error("zero nodes should fail")
	}
	if _, err := Synthetic(10, 0, 3, 2, rng); err == nil {
		t.Error("zero features should fail")
	}
	if _, err := Synthetic(10, 4, 3, -1, rng); err == nil {
		t.Error("negative edgesPerNode should fail")
	}
}
