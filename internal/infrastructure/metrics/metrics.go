package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger's Prometheus metrics.
type Metrics struct {
	TransactionsPosted prometheus.Counter
	TransfersCreated   prometheus.Counter
	DepositsCreated    prometheus.Counter
	PostingErrors      *prometheus.CounterVec
	AccountsCreated    prometheus.Counter
	PostingDuration    prometheus.Histogram
}

// New creates and registers all metrics against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_transactions_posted_total",
			Help: "Total number of balanced transactions committed",
		}),
		TransfersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_transfers_created_total",
			Help: "Total number of transfers created",
		}),
		DepositsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_deposits_created_total",
			Help: "Total number of deposits created",
		}),
		PostingErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_posting_errors_total",
				Help: "Total number of rejected posting operations by kind",
			},
			[]string{"kind"},
		),
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		PostingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgercore_posting_duration_seconds",
			Help:    "Duration of posting units of work",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
