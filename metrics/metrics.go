package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the engine's Prometheus collectors. Construct once and
// register on whatever registry the host serves.
type Metrics struct {
	DepositsTotal  prometheus.Counter
	ClaimsTotal    prometheus.Counter
	SweepVisits    prometheus.Counter
	SweepPayouts   prometheus.Counter
	SwapsTotal     prometheus.Counter
	SnipesDetected prometheus.Counter
	EligibleCount  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		DepositsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reflekt",
			Subsystem: "ledger",
			Name:      "deposits_total",
			Help:      "Number of reward deposits credited to the ledger",
		}),
		ClaimsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reflekt",
			Subsystem: "ledger",
			Name:      "claims_total",
			Help:      "Number of reward claims paid out",
		}),
		SweepVisits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reflekt",
			Subsystem: "sweeper",
			Name:      "visits_total",
			Help:      "Accounts visited by automatic payout sweeps",
		}),
		SweepPayouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reflekt",
			Subsystem: "sweeper",
			Name:      "payouts_total",
			Help:      "Accounts paid by automatic payout sweeps",
		}),
		SwapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reflekt",
			Subsystem: "fees",
			Name:      "swaps_total",
			Help:      "Fee-vault conversions deposited into the ledger",
		}),
		SnipesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reflekt",
			Subsystem: "fees",
			Name:      "snipes_detected_total",
			Help:      "Transfers that triggered the anti-bot snipe fee",
		}),
		EligibleCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reflekt",
			Subsystem: "ledger",
			Name:      "eligible_holders",
			Help:      "Holders currently eligible for automatic sweeps",
		}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.DepositsTotal, m.ClaimsTotal, m.SweepVisits, m.SweepPayouts,
		m.SwapsTotal, m.SnipesDetected, m.EligibleCount,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
