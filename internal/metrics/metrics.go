package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes the application-level counters around the mutation chain.
type Metrics struct {
	TransactionMutations   *prometheus.CounterVec
	ScoreRecomputations    prometheus.Counter
	ScoreRecomputeFailures prometheus.Counter
	AggregateRefreshes     prometheus.Counter
}

// NewWith registers the instruments against the given registerer. Tests pass
// a fresh registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransactionMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vaniga_transaction_mutations_total",
			Help: "Ledger mutations processed, by operation.",
		}, []string{"op"}),
		ScoreRecomputations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vaniga_score_recomputations_total",
			Help: "Successful score recomputations.",
		}),
		ScoreRecomputeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vaniga_score_recompute_failures_total",
			Help: "Score recomputations that fell back to the last persisted score.",
		}),
		AggregateRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vaniga_aggregate_refreshes_total",
			Help: "Customer aggregate refreshes.",
		}),
	}
	reg.MustRegister(
		m.TransactionMutations,
		m.ScoreRecomputations,
		m.ScoreRecomputeFailures,
		m.AggregateRefreshes,
	)
	return m
}

// New registers the instruments against the default Prometheus registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
