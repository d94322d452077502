// Package metrics exports cellular link events as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"i4.energy/across/cellgw/cellular"
)

const namespace = "cellgw"

// Collector is a cellular.Observer that counts link events.
type Collector struct {
	connectAttempts *prometheus.CounterVec
	resets          *prometheus.CounterVec
	errors          *prometheus.CounterVec
	socketCloses    *prometheus.CounterVec
	lastAttempt     prometheus.Gauge
}

var _ cellular.Observer = (*Collector)(nil)

// NewCollector registers the link metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		connectAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Attach sequence passes by result.",
		}, []string{"result"}),
		resets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hardware_resets_total",
			Help:      "Module resets by the error code that caused them.",
		}, []string{"cause"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_errors_total",
			Help:      "Classified driver errors by operation, class and action taken.",
		}, []string{"op", "class", "decision"}),
		socketCloses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_closes_total",
			Help:      "Released sockets by whether the module confirmed the close.",
		}, []string{"confirmed"}),
		lastAttempt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connect_attempt",
			Help:      "Number of the last attach attempt within a ConnectToNetwork call.",
		}),
	}
}

func (c *Collector) ConnectAttempt(attempt int, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.connectAttempts.WithLabelValues(result).Inc()
	c.lastAttempt.Set(float64(attempt))
}

func (c *Collector) HardwareReset(cause cellular.ErrorCode) {
	c.resets.WithLabelValues(strconv.Itoa(int(cause))).Inc()
}

func (c *Collector) ErrorHandled(op cellular.Operation, _ cellular.ErrorCode, class cellular.ErrorClass, decision cellular.Decision) {
	c.errors.WithLabelValues(op.String(), class.String(), decision.String()).Inc()
}

func (c *Collector) SocketClosed(_ int, ok bool) {
	c.socketCloses.WithLabelValues(strconv.FormatBool(ok)).Inc()
}
