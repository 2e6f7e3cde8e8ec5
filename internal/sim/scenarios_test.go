package sim_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/springlayout/internal/config"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/graph"
	"github.com/san-kum/springlayout/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

func distance(s *sim.Simulator, a, b string) float64 {
	pa, err := s.NodePosition(a)
	Expect(err).NotTo(HaveOccurred())
	pb, err := s.NodePosition(b)
	Expect(err).NotTo(HaveOccurred())
	return r2.Norm(r2.Sub(pa, pb))
}

func midpoint(s *sim.Simulator, a, b string) r2.Vec {
	pa, _ := s.NodePosition(a)
	pb, _ := s.NodePosition(b)
	return r2.Scale(0.5, r2.Add(pa, pb))
}

func newSim(g *graph.Graph, cfg dynamo.Config) *sim.Simulator {
	s, err := sim.New(g, cfg)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulator", func() {
	var (
		ctx context.Context
		cfg dynamo.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = dynamo.DefaultConfig()
	})

	Context("with two linked nodes and no repulsion", func() {
		BeforeEach(func() {
			cfg.Repulsion = 0
			cfg.Centering = 0
		})

		DescribeTable("settles at the rest length of the link",
			func(weight, want float64) {
				g := graph.New()
				_, err := g.AddLink("a", "b", weight)
				Expect(err).NotTo(HaveOccurred())

				s := newSim(g, cfg)
				start := midpoint(s, "a", "b")

				_, err = s.Run(ctx, 3000)
				Expect(err).NotTo(HaveOccurred())

				Expect(distance(s, "a", "b")).To(BeNumerically("~", want, 1e-3))
				end := midpoint(s, "a", "b")
				Expect(r2.Norm(r2.Sub(end, start))).To(BeNumerically("<", 1e-9))
				Expect(s.Converged()).To(BeTrue())
			},
			Entry("strong link", 0.9, 1/0.9),
			Entry("medium link", 0.5, 2.0),
			Entry("weak link", 0.25, 4.0),
			Entry("link below the weight floor", 0.001, 1/dynamo.DefaultMinWeight),
		)
	})

	Context("with an unlinked pair under centering", func() {
		It("separates further as repulsion grows", func() {
			var last float64
			for _, repulsion := range []float64{-0.3, -1.2, -4.8} {
				g := graph.New()
				g.AddNode("a")
				g.AddNode("b")
				cfg.Repulsion = repulsion

				s := newSim(g, cfg)
				_, err := s.Run(ctx, 5000)
				Expect(err).NotTo(HaveOccurred())

				d := distance(s, "a", "b")
				Expect(d).To(BeNumerically(">", last), "repulsion %v", repulsion)
				last = d
			}
		})
	})

	Context("with links of different strength", func() {
		It("places the strongly similar pair closer", func() {
			g := graph.New()
			g.AddLink("A", "B", 0.9)
			g.AddLink("B", "C", 0.2)
			cfg.Seed = 42

			s := newSim(g, cfg)
			_, err := s.Run(ctx, 1000)
			Expect(err).NotTo(HaveOccurred())

			Expect(distance(s, "A", "B")).To(BeNumerically("<", distance(s, "B", "C")))
			Expect(distance(s, "A", "C")).To(BeNumerically(">", cfg.MinDistance))
		})
	})

	Context("with an isolated node", func() {
		It("stays in its initial neighborhood", func() {
			g := graph.New()
			g.AddNode("solo")

			s := newSim(g, cfg)
			start, err := s.NodePosition("solo")
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(ctx, 1000)
			Expect(err).NotTo(HaveOccurred())

			end, _ := s.NodePosition("solo")
			Expect(r2.Norm(r2.Sub(end, start))).To(BeNumerically("<", 1e-9))
			Expect(s.Converged()).To(BeTrue())
		})
	})

	Context("with two disconnected pairs", func() {
		It("keeps both pairs near the global centroid", func() {
			g := graph.New()
			g.AddLink("a", "b", 0.5)
			g.AddLink("c", "d", 0.5)

			s := newSim(g, cfg)
			res, err := s.RunUntilConverged(ctx, 20000)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())

			centroid := s.Bodies().Centroid()
			for _, pair := range [][2]string{{"a", "b"}, {"c", "d"}} {
				m := midpoint(s, pair[0], pair[1])
				Expect(r2.Norm(r2.Sub(m, centroid))).To(BeNumerically("<", 20))
			}
			Expect(distance(s, "a", "c")).To(BeNumerically("<", 40))
		})
	})

	Context("after convergence", func() {
		It("keeps every node at rest", func() {
			g := graph.New()
			g.AddLink("A", "B", 0.9)
			g.AddLink("B", "C", 0.2)
			g.AddLink("C", "D", 0.6)
			cfg.ConvergenceThreshold = 1e-6

			s := newSim(g, cfg)
			res, err := s.RunUntilConverged(ctx, 20000)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())

			for i := 0; i < 200; i++ {
				stats, err := s.Step()
				Expect(err).NotTo(HaveOccurred())
				Expect(stats.MaxDisplacement).To(BeNumerically("<", 1e-2))
			}
		})
	})

	Context("with a few hundred weighted links", func() {
		It("converges within the default budget and stays at rest", func() {
			const n = 200
			g := graph.New()
			for i := 0; i < n; i++ {
				g.AddNode(fmt.Sprintf("n%d", i))
			}
			for i := 0; i < n; i++ {
				for k, offset := range []int{1, 7, 45} {
					w := 0.15 + 0.8*float64((i*37+(k+1)*11)%97)/96
					_, err := g.AddLink(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", (i+offset)%n), w)
					Expect(err).NotTo(HaveOccurred())
				}
			}

			s := newSim(g, cfg)
			res, err := s.RunUntilConverged(ctx, config.DefaultIterations)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue(), "mean energy %v after %d steps", s.MeanEnergy(), res.Steps)
			Expect(res.Health.OK()).To(BeTrue())

			for i := 0; i < 200; i++ {
				stats, err := s.Step()
				Expect(err).NotTo(HaveOccurred())
				Expect(stats.MaxDisplacement).To(BeNumerically("<", 2e-2), "step %d", stats.Step)
			}
		})
	})

	Context("when the graph is queried for an unknown node", func() {
		It("fails with ErrNodeNotFound without disturbing the layout", func() {
			g := graph.New()
			g.AddLink("a", "b", 0.5)
			s := newSim(g, cfg)
			s.Step()

			_, err := s.NodePosition("ghost")
			Expect(err).To(MatchError(dynamo.ErrNodeNotFound))

			_, err = s.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Steps()).To(Equal(2))
		})
	})

	Context("with the original time step and no speed clamp", func() {
		It("never reports non-finite positions", func() {
			g := graph.New()
			g.AddLink("a", "b", 0.9)
			g.AddLink("b", "c", 0.3)
			g.AddLink("c", "d", 0.7)
			g.AddLink("d", "a", 0.2)
			cfg.TimeStep = 20

			s := newSim(g, cfg)
			_, err := s.Run(ctx, 500)
			Expect(err).NotTo(HaveOccurred())
			for id, p := range s.Positions() {
				Expect(dynamo.Finite(p)).To(BeTrue(), "node %s at %v", id, p)
			}
		})
	})
})
