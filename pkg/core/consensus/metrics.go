package consensus

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the retargeting engine's cache effectiveness counters as
// Prometheus instruments. It is wired into the RPC server's /metrics
// endpoint; recording a sample never influences cache behavior or the
// returned target, preserving the determinism invariant.
var (
	targetCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chrd",
		Subsystem: "target_cache",
		Name:      "hits_total",
		Help:      "Windowed ASERT average target lookups served from cache.",
	})
	targetCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chrd",
		Subsystem: "target_cache",
		Name:      "misses_total",
		Help:      "Windowed ASERT average target lookups that had to recompute.",
	})
	targetCacheBypasses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chrd",
		Subsystem: "target_cache",
		Name:      "bypasses_total",
		Help:      "Windowed ASERT average target lookups bypassing the cache (algo == -1).",
	})
	retargetCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chrd",
		Subsystem: "retarget",
		Name:      "calls_total",
		Help:      "RetargetCore invocations by algorithm name.",
	}, []string{"algorithm"})
)

func init() {
	prometheus.MustRegister(targetCacheHits, targetCacheMisses, targetCacheBypasses, retargetCalls)
}
