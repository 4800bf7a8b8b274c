package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ministeriokids", Name: "http_requests_total", Help: "Requisições HTTP processadas",
	}, []string{"method", "status"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ministeriokids", Name: "handler_errors_total", Help: "Erros internos em handlers",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ministeriokids", Name: "db_ping_seconds", Help: "Latência do ping ao banco",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HandlerErrors, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
