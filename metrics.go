package match

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPublishLog turns book logs into Prometheus counters.
type MetricsPublishLog struct {
	events  *prometheus.CounterVec
	volume  *prometheus.CounterVec
	rejects *prometheus.CounterVec
}

// NewMetricsPublishLog creates the collectors and registers them with reg.
func NewMetricsPublishLog(reg prometheus.Registerer) (*MetricsPublishLog, error) {
	m := &MetricsPublishLog{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderbook",
			Name:      "events_total",
			Help:      "Book log events by type.",
		}, []string{"market_id", "type"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderbook",
			Name:      "traded_quantity_total",
			Help:      "Quantity traded.",
		}, []string{"market_id"}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderbook",
			Name:      "rejected_orders_total",
			Help:      "Rejected submissions by reason.",
		}, []string{"market_id", "reason"}),
	}

	for _, c := range []prometheus.Collector{m.events, m.volume, m.rejects} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsPublishLog) Publish(logs ...*BookLog) {
	for _, log := range logs {
		m.events.WithLabelValues(log.MarketID, string(log.Type)).Inc()

		switch log.Type {
		case LogTypeMatch:
			m.volume.WithLabelValues(log.MarketID).Add(float64(log.Size))
		case LogTypeReject:
			m.rejects.WithLabelValues(log.MarketID, string(log.RejectReason)).Inc()
		}
	}
}
