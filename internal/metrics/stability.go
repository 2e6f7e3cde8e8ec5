package metrics

import "github.com/san-kum/springlayout/internal/dynamo"

// Stability is the share of steps on which no body needed a non-finite
// reset. An unobserved run counts as fully stable.
type Stability struct {
	name       string
	steps      int
	clean      int
	recoveries int
}

func NewStability() *Stability { return &Stability{name: "stability"} }

func (s *Stability) Name() string { return s.name }

func (s *Stability) Observe(_ dynamo.Bodies, stats dynamo.StepStats) {
	s.steps++
	if len(stats.Recovered) == 0 {
		s.clean++
		return
	}
	s.recoveries += len(stats.Recovered)
}

func (s *Stability) Value() float64 {
	if s.steps == 0 {
		return 1
	}
	return float64(s.clean) / float64(s.steps)
}

// Recoveries is the number of body resets seen since the last Reset.
func (s *Stability) Recoveries() int { return s.recoveries }

func (s *Stability) Reset() { *s = Stability{name: s.name} }
