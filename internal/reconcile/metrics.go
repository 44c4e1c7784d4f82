package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ledgerEntries tracks unconfirmed optimistic values.
	ledgerEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "soak_console_ledger_entries",
		Help: "Optimistic values currently masking the polled snapshot",
	})

	ledgerExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soak_console_ledger_expired_total",
		Help: "Ledger entries dropped because their window elapsed",
	})

	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soak_console_dispatch_total",
		Help: "Optimistic command dispatches by result",
	}, []string{"result"})
)
