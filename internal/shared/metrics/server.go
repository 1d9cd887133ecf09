package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthFunc func(ctx context.Context) error

// Check é uma dependência verificada pelo /healthz.
type Check struct {
	Name string
	Fn   HealthFunc
}

// HealthReport é o corpo do /healthz.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewMux monta o mux de /metrics e /healthz. Cada check roda com 500ms;
// qualquer falha devolve 503 com o motivo daquela dependência.
func NewMux(g prometheus.Gatherer, checks ...Check) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		rep := HealthReport{Status: "ok", Checks: make(map[string]string, len(checks))}
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			err := c.Fn(ctx)
			cancel()
			if err != nil {
				rep.Status = "unhealthy"
				rep.Checks[c.Name] = err.Error()
				continue
			}
			rep.Checks[c.Name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		if rep.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(rep)
	})

	return mux
}

// StartMetricsServer sobe um servidor HTTP leve só pra /metrics e /healthz,
// numa goroutine própria.
func StartMetricsServer(port string, g prometheus.Gatherer, checks ...Check) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           NewMux(g, checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
