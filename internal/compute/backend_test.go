package compute

import (
	"math/rand"
	"testing"

	"github.com/san-kum/springlayout/internal/quadtree"
	"gonum.org/v1/gonum/spatial/r2"
)

func buildTree(n int) *quadtree.Tree {
	rng := rand.New(rand.NewSource(42))
	pos := make([]r2.Vec, n)
	mass := make([]float64, n)
	for i := range pos {
		pos[i] = r2.Vec{X: rng.NormFloat64() * 20, Y: rng.NormFloat64() * 20}
		mass[i] = 1 + float64(i%4)/3
	}
	tree := quadtree.New()
	tree.Reset(pos, mass)
	return tree
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		workers int
		want    string
	}{
		{0, "cpu"},
		{1, "serial"},
		{4, "cpu"},
	}

	for _, tt := range tests {
		if got := NewBackend(tt.workers).Name(); got != tt.want {
			t.Errorf("NewBackend(%d) = %s, want %s", tt.workers, got, tt.want)
		}
	}

	if NewCPUBackend(0).Workers() < 1 {
		t.Error("CPU backend with auto worker count has no workers")
	}
}

func TestCPUMatchesSerial(t *testing.T) {
	for _, n := range []int{10, 500, 1337} {
		tree := buildTree(n)
		p := Repulsion{Theta: 0.8, Coefficient: -1.2, MinDistance: 1e-3}

		serial := make([]r2.Vec, n)
		serialStiff := make([]float64, n)
		if err := (Serial{}).Repulsion(tree, serial, serialStiff, p); err != nil {
			t.Fatal(err)
		}

		for _, workers := range []int{2, 3, 8} {
			parallel := make([]r2.Vec, n)
			parallelStiff := make([]float64, n)
			if err := NewCPUBackend(workers).Repulsion(tree, parallel, parallelStiff, p); err != nil {
				t.Fatal(err)
			}
			for i := range serial {
				if serial[i] != parallel[i] {
					t.Fatalf("n=%d workers=%d body %d: serial %v, parallel %v", n, workers, i, serial[i], parallel[i])
				}
				if serialStiff[i] != parallelStiff[i] {
					t.Fatalf("n=%d workers=%d body %d: stiffness %v vs %v", n, workers, i, serialStiff[i], parallelStiff[i])
				}
			}
		}
	}
}

func TestNilStiffness(t *testing.T) {
	tree := buildTree(300)
	p := Repulsion{Theta: 0.8, Coefficient: -1.2, MinDistance: 1e-3}

	plain := make([]r2.Vec, 300)
	with := make([]r2.Vec, 300)
	stiff := make([]float64, 300)
	if err := NewCPUBackend(4).Repulsion(tree, plain, nil, p); err != nil {
		t.Fatal(err)
	}
	if err := NewCPUBackend(4).Repulsion(tree, with, stiff, p); err != nil {
		t.Fatal(err)
	}
	for i := range plain {
		if plain[i] != with[i] {
			t.Fatalf("body %d: force changed when stiffness is requested", i)
		}
		if stiff[i] <= 0 {
			t.Fatalf("body %d: stiffness %v, want > 0", i, stiff[i])
		}
	}
}

func BenchmarkRepulsion(b *testing.B) {
	tree := buildTree(5000)
	out := make([]r2.Vec, 5000)
	p := Repulsion{Theta: 0.8, Coefficient: -1.2, MinDistance: 1e-3}

	b.Run("serial", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Serial{}.Repulsion(tree, out, nil, p)
		}
	})
	b.Run("cpu", func(b *testing.B) {
		backend := NewCPUBackend(0)
		for i := 0; i < b.N; i++ {
			backend.Repulsion(tree, out, nil, p)
		}
	})
}
