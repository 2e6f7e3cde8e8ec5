package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/san-kum/springlayout/internal/dynamo"
)

// Collector mirrors simulation progress into Prometheus metrics. It is a
// dynamo.Observer; attach it with Simulator.AddObserver.
type Collector struct {
	registry *prometheus.Registry

	Steps           prometheus.Counter
	Recoveries      prometheus.Counter
	KineticEnergy   prometheus.Gauge
	Displacement    prometheus.Gauge
	MaxDisplacement prometheus.Gauge
	Temperature     prometheus.Gauge
	Converged       prometheus.Gauge
	Bodies          prometheus.Gauge
}

func NewCollector() *Collector {
	r := prometheus.NewRegistry()
	c := &Collector{registry: r}

	c.Steps = promauto.With(r).NewCounter(prometheus.CounterOpts{
		Name: "springlayout_steps_total",
		Help: "Total number of simulation steps",
	})
	c.Recoveries = promauto.With(r).NewCounter(prometheus.CounterOpts{
		Name: "springlayout_recoveries_total",
		Help: "Total number of per-node resets after non-finite state",
	})
	c.KineticEnergy = promauto.With(r).NewGauge(prometheus.GaugeOpts{
		Name: "springlayout_kinetic_energy",
		Help: "System kinetic energy after the last step",
	})
	c.Displacement = promauto.With(r).NewGauge(prometheus.GaugeOpts{
		Name: "springlayout_mean_displacement",
		Help: "Mean distance moved by a node on the last step",
	})
	c.MaxDisplacement = promauto.With(r).NewGauge(prometheus.GaugeOpts{
		Name: "springlayout_max_displacement",
		Help: "Largest distance moved by a node on the last step",
	})
	c.Temperature = promauto.With(r).NewGauge(prometheus.GaugeOpts{
		Name: "springlayout_temperature",
		Help: "Force scale applied on the last step",
	})
	c.Converged = promauto.With(r).NewGauge(prometheus.GaugeOpts{
		Name: "springlayout_converged",
		Help: "Whether the last step ended below the mean energy threshold (1=yes, 0=no)",
	})
	c.Bodies = promauto.With(r).NewGauge(prometheus.GaugeOpts{
		Name: "springlayout_bodies",
		Help: "Number of bodies in the layout",
	})
	return c
}

func (c *Collector) OnStep(bodies dynamo.Bodies, stats dynamo.StepStats) {
	c.Steps.Inc()
	c.Recoveries.Add(float64(len(stats.Recovered)))
	c.KineticEnergy.Set(stats.Energy)
	c.Displacement.Set(stats.Displacement)
	c.MaxDisplacement.Set(stats.MaxDisplacement)
	c.Temperature.Set(stats.Temperature)
	c.Bodies.Set(float64(len(bodies)))
	if stats.Converged {
		c.Converged.Set(1)
	} else {
		c.Converged.Set(0)
	}
}

func (c *Collector) Gatherer() prometheus.Gatherer { return c.registry }

// WriteTextfile writes the current values in the text exposition format,
// for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
