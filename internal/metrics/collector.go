// Package metrics exposes ledger and account counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Transaction statuses used as label values.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
)

// Collector records ledger and account events in its own registry.
type Collector struct {
	registry              *prometheus.Registry
	transactions          *prometheus.CounterVec
	transactionDuration   *prometheus.HistogramVec
	commission            prometheus.Counter
	accountsCreated       prometheus.Counter
	accountLimitRejection prometheus.Counter
}

// New returns Collector with all metrics registered.
func New() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Total number of ledger operations by type and outcome",
		}, []string{"type", "status"}),
		transactionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_transaction_duration_seconds",
			Help:    "Time taken to process a ledger operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		commission: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_commission_total",
			Help: "Sum of commissions charged on transfers",
		}),
		accountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of opened accounts",
		}),
		accountLimitRejection: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_account_limit_rejections_total",
			Help: "Total number of account openings rejected by the tier limit",
		}),
	}
}

// TransactionCommitted records a successful ledger operation.
func (c *Collector) TransactionCommitted(typ domain.TransactionType, commission decimal.Decimal, elapsed time.Duration) {
	c.transactions.WithLabelValues(string(typ), StatusSuccess).Inc()
	c.transactionDuration.WithLabelValues(string(typ)).Observe(elapsed.Seconds())

	// Reporting only, balances never go through float.
	if commission.IsPositive() {
		c.commission.Add(commission.InexactFloat64())
	}
}

// TransactionRejected records a ledger operation that left the state unchanged.
func (c *Collector) TransactionRejected(typ domain.TransactionType, elapsed time.Duration) {
	c.transactions.WithLabelValues(string(typ), StatusRejected).Inc()
	c.transactionDuration.WithLabelValues(string(typ)).Observe(elapsed.Seconds())
}

// AccountCreated counts an opened account.
func (c *Collector) AccountCreated() {
	c.accountsCreated.Inc()
}

// AccountLimitRejected counts an account opening refused by the tier limit.
func (c *Collector) AccountLimitRejected() {
	c.accountLimitRejection.Inc()
}

// Handler serves the collected metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
