package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hyprconnect"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	pollDuration    *prom.HistogramVec
	devices         *prom.GaugeVec
	transitions     *prom.CounterVec
	watcherSignals  *prom.CounterVec
	resubscribes    prom.Counter
	ipcRequests     *prom.CounterVec
	notificationsTx *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the daemon metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		pollDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of poll cycles by outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		devices: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Devices in the current snapshot",
		}, []string{"state"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reachability_transitions_total",
			Help:      "Reachability transitions observed between snapshots",
		}, []string{"kind"}),
		watcherSignals: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_signals_total",
			Help:      "Bus signals seen by the event watcher",
		}, []string{"outcome"}),
		resubscribes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_resubscribes_total",
			Help:      "Bus subscription attempts after a failure or drop",
		}),
		ipcRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ipc_requests_total",
			Help:      "IPC requests by type and result",
		}, []string{"type", "ok"}),
		notificationsTx: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by sender and result",
		}, []string{"sender", "ok"}),
	}
	reg.MustRegister(pr.pollDuration, pr.devices, pr.transitions, pr.watcherSignals,
		pr.resubscribes, pr.ipcRequests, pr.notificationsTx)
	return pr
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObservePollCycle(d time.Duration, outcome string) {
	p.pollDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetDevices(paired, reachable int) {
	p.devices.WithLabelValues("paired").Set(float64(paired))
	p.devices.WithLabelValues("reachable").Set(float64(reachable))
}

func (p *PrometheusRecorder) IncTransition(kind string) {
	p.transitions.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncWatcherSignal(outcome string) {
	p.watcherSignals.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncWatcherResubscribe() {
	p.resubscribes.Inc()
}

func (p *PrometheusRecorder) IncIPCRequest(requestType string, ok bool) {
	p.ipcRequests.WithLabelValues(requestType, strconv.FormatBool(ok)).Inc()
}

func (p *PrometheusRecorder) IncNotification(sender string, ok bool) {
	p.notificationsTx.WithLabelValues(sender, strconv.FormatBool(ok)).Inc()
}
