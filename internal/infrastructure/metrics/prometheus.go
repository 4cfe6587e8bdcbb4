package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.Metrics = (*Prometheus)(nil)

// Prometheus contadores del motor de inventario registrados en un registry propio.
type Prometheus struct {
	registry      *prometheus.Registry
	deductions    *prometheus.CounterVec
	deductionTime *prometheus.HistogramVec
	ledgerEntries *prometheus.CounterVec
	alertEvents   *prometheus.CounterVec
	httpResponses *prometheus.CounterVec
}

// New registra las métricas (namespace stock_ledger) más los collectors de Go y proceso.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		deductions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock_ledger",
			Name:      "deductions_total",
			Help:      "Deducciones por resultado (applied, already_applied, insufficient_stock, lock_timeout, ...).",
		}, []string{"outcome"}),
		deductionTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stock_ledger",
			Name:      "deduction_duration_seconds",
			Help:      "Duración de Deduct incluyendo la espera de bloqueos.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"outcome"}),
		ledgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock_ledger",
			Name:      "ledger_entries_total",
			Help:      "Entradas de ledger escritas por causa.",
		}, []string{"cause"}),
		alertEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock_ledger",
			Name:      "alert_transitions_total",
			Help:      "Transiciones de alertas de stock por tipo de evento.",
		}, []string{"kind"}),
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock_ledger",
			Name:      "http_responses_total",
			Help:      "Respuestas HTTP por método, ruta y código.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		p.deductions, p.deductionTime, p.ledgerEntries, p.alertEvents, p.httpResponses,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return p
}

// Registry para exponer en /metrics.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

func (p *Prometheus) DeductionObserved(outcome string, elapsed time.Duration) {
	p.deductions.WithLabelValues(outcome).Inc()
	p.deductionTime.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (p *Prometheus) LedgerEntriesWritten(cause string, n int) {
	if n > 0 {
		p.ledgerEntries.WithLabelValues(cause).Add(float64(n))
	}
}

func (p *Prometheus) AlertTransition(kind string) {
	p.alertEvents.WithLabelValues(kind).Inc()
}

// HTTPResponse contador usado por el middleware HTTP.
func (p *Prometheus) HTTPResponse(method, route string, status int) {
	p.httpResponses.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
