package compute

import (
	"runtime"

	"github.com/san-kum/springlayout/internal/quadtree"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"
)

// minChunk is the smallest number of bodies worth handing to a goroutine.
const minChunk = 64

type CPUBackend struct {
	workers int
}

// NewCPUBackend returns a backend using up to workers goroutines; workers <= 0
// means one per CPU.
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string { return "cpu" }

func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) Repulsion(tree *quadtree.Tree, out []r2.Vec, stiff []float64, p Repulsion) error {
	n := len(out)
	if n < 2*minChunk || c.workers == 1 {
		return Serial{}.Repulsion(tree, out, stiff, p)
	}

	chunkSize := (n + c.workers - 1) / c.workers
	if chunkSize < minChunk {
		chunkSize = minChunk
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				evaluate(tree, out, stiff, p, i)
			}
			return nil
		})
	}
	return g.Wait()
}
