package http

import "github.com/prometheus/client_golang/prometheus"

// Metrics são os contadores expostos em /metrics pelo sync-server.
type Metrics struct {
	Saved     prometheus.Counter
	Loaded    prometheus.Counter
	Deleted   prometheus.Counter
	SaveBytes prometheus.Histogram
	RateBy    *prometheus.CounterVec
	ErrorsBy  *prometheus.CounterVec
}

// NewMetrics cria e registra os coletores em reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Saved:   prometheus.NewCounter(prometheus.CounterOpts{Name: "sync_snapshots_saved_total", Help: "imagens gravadas"}),
		Loaded:  prometheus.NewCounter(prometheus.CounterOpts{Name: "sync_snapshots_loaded_total", Help: "imagens servidas"}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "sync_snapshots_deleted_total", Help: "imagens removidas"}),
		SaveBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sync_snapshot_size_bytes",
			Help:    "tamanho das imagens recebidas",
			Buckets: prometheus.ExponentialBuckets(16<<10, 4, 8),
		}),
		RateBy:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sync_exchange_rate_requests_total", Help: "cotações servidas por origem"}, []string{"origin"}),
		ErrorsBy: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sync_errors_total", Help: "erros por estágio"}, []string{"stage"}),
	}
	reg.MustRegister(m.Saved, m.Loaded, m.Deleted, m.SaveBytes, m.RateBy, m.ErrorsBy)
	return m
}
