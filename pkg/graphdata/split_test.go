package graphdata

import (
	"math/rand"
	"testing"
)

func TestRandomSplitSizes(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		fractions [3]float64
		wantSizes [3]int
	}{
		{"reference fractions", 100, DefaultFractions, [3]int{80, 5, 15}},
		{"floor drops surplus", 10, DefaultFractions, [3]int{8, 0, 1}},
		{"tiny graph", 3, DefaultFractions, [3]int{2, 0, 0}},
		{"even thirds", 9, [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, [3]int{3, 3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			split, err := RandomSplit(tt.n, tt.fractions, rng)
			if err != nil {
				t.Fatalf("RandomSplit() error: %v", err)
			}

			if len(split.Train) != tt.wantSizes[0] {
				t.Errorf("train size = %d, want %d", len(split.Train), tt.wantSizes[0])
			}
			if len(split.Valid) != tt.wantSizes[1] {
				t.Errorf("valid size = %d, want %d", len(split.Valid), tt.wantSizes[1])
			}
			if len(split.Test) != tt.wantSizes[2] {
				t.Errorf("test size = %d, want %d", len(split.Test), tt.wantSizes[2])
			}
			if split.Size() > tt.n {
				t.Errorf("assigned %d indices for %d nodes", split.Size(), tt.n)
			}
		})
	}
}

func TestRandomSplitDisjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	split, err := RandomSplit(200, DefaultFractions, rng)
	if err != nil {
		t.Fatalf("RandomSplit() error: %v", err)
	}

	seen := make(map[int]string)
	record := func(name string, idx []int) {
		for _, i := range idx {
			if i < 0 || i >= 200 {
				t.Errorf("%s contains out-of-range index %d", name, i)
			}
			if prev, dup := seen[i]; dup {
				t.Errorf("index %d assigned to both %s and %s", i, prev, name)
			}
			seen[i] = name
		}
	}
	record("train", split.Train)
	record("valid", split.Valid)
	record("test", split.Test)
}

func TestRandomSplitSeededDeterminism(t *testing.T) {
	a, err := RandomSplit(50, DefaultFractions, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("RandomSplit() error: %v", err)
	}
	b, err := RandomSplit(50, DefaultFractions, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("RandomSplit() error: %v", err)
	}

	for i := range a.Train {
		if a.Train[i] != b.Train[i] {
			t.Fatalf("same seed produced different train permutations at %d", i)
		}
	}
}

func TestRandomSplitRejectsBadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	if _, err := RandomSplit(0, DefaultFractions, rng); err == nil {
		t.Error("RandomSplit(0) should fail")
	}
	if _, err := RandomSplit(10, [3]float64{0.9, 0.2, 0.2}, rng); err == nil {
		t.Error("fractions summing past 1 should fail")
	}
	if _, err := RandomSplit(10, [3]float64{-0.1, 0.5, 0.5}, rng); err == nil {
		t.Error("negative fraction should fail")
	}
}
