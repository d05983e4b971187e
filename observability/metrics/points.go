package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PointsMetrics exposes the counters the daemon maintains around the
// accrual and redemption flows.
type PointsMetrics struct {
	checkpointsCredited *prometheus.CounterVec
	checkpointsBlocked  *prometheus.CounterVec
	claimsSettled       prometheus.Counter
	claimsSkipped       *prometheus.CounterVec
	rootsActivated      prometheus.Counter
	redemptions         prometheus.Counter
	moduleFaults        *prometheus.CounterVec
}

var (
	pointsOnce     sync.Once
	pointsRegistry *PointsMetrics
)

// Points returns the process-wide points metrics registry.
func Points() *PointsMetrics {
	pointsOnce.Do(func() {
		pointsRegistry = &PointsMetrics{
			checkpointsCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "points_checkpoints_credited_total",
				Help: "Checkpoints that credited points, by module.",
			}, []string{"module"}),
			checkpointsBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "points_checkpoints_blocked_total",
				Help: "Checkpoints blocked by the flash-loan guard, by module.",
			}, []string{"module"}),
			claimsSettled: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "points_claims_settled_total",
				Help: "Cumulative Merkle claims settled.",
			}),
			claimsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "points_claims_skipped_total",
				Help: "Batch claim entries skipped, by reason.",
			}, []string{"reason"}),
			rootsActivated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "points_roots_activated_total",
				Help: "Merkle roots promoted to active.",
			}),
			redemptions: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "points_redemptions_total",
				Help: "Successful point redemptions.",
			}),
			moduleFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "points_module_faults_total",
				Help: "Module queries zeroed by the isolation boundary, by module.",
			}, []string{"module"}),
		}
		prometheus.MustRegister(
			pointsRegistry.checkpointsCredited,
			pointsRegistry.checkpointsBlocked,
			pointsRegistry.claimsSettled,
			pointsRegistry.claimsSkipped,
			pointsRegistry.rootsActivated,
			pointsRegistry.redemptions,
			pointsRegistry.moduleFaults,
		)
	})
	return pointsRegistry
}

// ObserveCheckpoint records a checkpoint outcome.
func (m *PointsMetrics) ObserveCheckpoint(module string, credited bool) {
	if m == nil {
		return
	}
	if credited {
		m.checkpointsCredited.WithLabelValues(module).Inc()
		return
	}
	m.checkpointsBlocked.WithLabelValues(module).Inc()
}

// ObserveClaimSettled records a settled claim.
func (m *PointsMetrics) ObserveClaimSettled() {
	if m == nil {
		return
	}
	m.claimsSettled.Inc()
}

// ObserveClaimSkipped records a skipped batch entry.
func (m *PointsMetrics) ObserveClaimSkipped(reason string) {
	if m == nil {
		return
	}
	m.claimsSkipped.WithLabelValues(reason).Inc()
}

// ObserveRootActivated records a root promotion.
func (m *PointsMetrics) ObserveRootActivated() {
	if m == nil {
		return
	}
	m.rootsActivated.Inc()
}

// ObserveRedemption records a successful redemption.
func (m *PointsMetrics) ObserveRedemption() {
	if m == nil {
		return
	}
	m.redemptions.Inc()
}

// ObserveModuleFault records an isolated module failure.
func (m *PointsMetrics) ObserveModuleFault(module string) {
	if m == nil {
		return
	}
	m.moduleFaults.WithLabelValues(module).Inc()
}
