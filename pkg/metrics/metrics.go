// Package metrics records generation metrics on a private Prometheus
// registry. The CLI writes them out in the node exporter textfile format,
// which lets scheduled generation runs be monitored like any other job.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nebari-dev/mysql-topology/pkg/naming"
	"github.com/nebari-dev/mysql-topology/pkg/topology"
)

const namespace = "mysqltopo"

// Render results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder holds the metrics of one CLI invocation. It is safe for
// concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	resources      *prometheus.GaugeVec
	nodes          *prometheus.GaugeVec
	renderTotal    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	lastSuccess    prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "topology",
				Name:      "resources",
				Help:      "Number of generated resources by type",
			},
			[]string{"deployment", "type"},
		),
		nodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "topology",
				Name:      "nodes",
				Help:      "Number of MySQL nodes by replication role",
			},
			[]string{"deployment", "role"},
		),
		renderTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "total",
				Help:      "Total number of renderings by target and result",
			},
			[]string{"target", "result"},
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "duration_seconds",
				Help:      "Duration of parse, generate and render for one deployment file",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"target"},
		),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last rendering that succeeded",
		}),
	}

	r.registry.MustRegister(r.resources, r.nodes, r.renderTotal, r.renderDuration, r.lastSuccess)
	return r
}

// ObserveTopology records resource counts for a generated topology.
func (r *Recorder) ObserveTopology(deployment string, topo *topology.Config) {
	for _, typ := range []string{topology.TypeAddress, topology.TypeDisk, topology.TypeInstance} {
		r.resources.WithLabelValues(deployment, typ).Set(float64(len(topo.ByType(typ))))
	}

	master := naming.RoleTags(deployment, naming.RoleMaster)[0]
	counts := map[naming.Role]int{naming.RoleMaster: 0, naming.RoleSlave: 0}
	for _, res := range topo.ByType(topology.TypeInstance) {
		role := naming.RoleSlave
		if p, ok := res.Properties.(*topology.InstanceProperties); ok {
			for _, tag := range p.Tags.Items {
				if tag == master {
					role = naming.RoleMaster
					break
				}
			}
		}
		counts[role]++
	}
	for role, n := range counts {
		r.nodes.WithLabelValues(deployment, string(role)).Set(float64(n))
	}
}

// ObserveRender records one rendering attempt and how long it took.
func (r *Recorder) ObserveRender(target string, took time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	r.renderTotal.WithLabelValues(target, result).Inc()
	r.renderDuration.WithLabelValues(target).Observe(took.Seconds())
	if err == nil {
		r.lastSuccess.SetToCurrentTime()
	}
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
