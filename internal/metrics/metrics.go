package metrics

import (
	"log"
	"time"

	"net/http"

	"github.com/sunnyhub/openwhisk/internal/config"
	"github.com/sunnyhub/openwhisk/internal/containerpool"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Enabled bool
var registry = prometheus.NewRegistry()

var (
	activeContainers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "invoker_pool_active_containers",
		Help: "Number of containers currently running an invocation.",
	})
	idleContainers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "invoker_pool_idle_containers",
		Help: "Number of warm containers available for reuse.",
	})
	startingContainers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "invoker_pool_starting_containers",
		Help: "1 if a cold start is currently in flight, 0 otherwise.",
	})
	gcSweptTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "invoker_pool_gc_swept_total",
		Help: "Cumulative count of containers removed by age-based or forced GC.",
	})
)

// WatchPool starts a goroutine that periodically samples pool.Status()
// into the occupancy gauges. No-op if metrics are disabled.
func WatchPool(pool *containerpool.Pool, interval time.Duration) {
	if !Enabled {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			status := pool.Status()
			activeContainers.Set(float64(status.Active))
			idleContainers.Set(float64(status.Idle))
			startingContainers.Set(float64(status.Starting))
			gcSweptTotal.Set(float64(status.GCSwept))
		}
	}()
}

// Init sets Enabled and, if metrics are on, registers the gauges and starts
// the /metrics listener in the background. It returns as soon as Enabled is
// settled, so callers can rely on it before starting anything that checks
// Enabled (WatchPool in particular).
func Init() {
	if config.GetBool(config.METRICS_ENABLED, false) {
		log.Println("Metrics enabled.")
		Enabled = true
	} else {
		log.Println("Metrics disabled.")
		Enabled = false
		return
	}

	registry.MustRegister(activeContainers, idleContainers, startingContainers, gcSweptTotal)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true})
	http.Handle("/metrics", handler)
	go http.ListenAndServe(":2112", nil)
}
