package breakpoints

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// breakpointMutations tracks registry mutations by operation
	breakpointMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debugcore_breakpoint_mutations_total",
			Help: "Total breakpoint registry mutations by operation",
		},
		[]string{"operation"},
	)
)

// recordMutation increments the mutation counter
func recordMutation(operation string) {
	breakpointMutations.WithLabelValues(operation).Inc()
}
