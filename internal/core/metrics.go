package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the ledger and funding collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	transfers      *prometheus.CounterVec
	feesBurned     prometheus.Counter
	confirmLatency prometheus.Histogram
	registrations  prometheus.Counter
	simulations    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "episim",
			Subsystem: "ledger",
			Name:      "transfers_total",
			Help:      "Mock ledger transfers by outcome.",
		}, []string{"outcome"}),
		feesBurned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "episim",
			Subsystem: "ledger",
			Name:      "fees_burned_total",
			Help:      "Sum of transfer fees debited and not credited to any wallet.",
		}),
		confirmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "episim",
			Subsystem: "ledger",
			Name:      "confirmation_seconds",
			Help:      "Time from transfer submission to simulated confirmation.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "episim",
			Subsystem: "ledger",
			Name:      "agents_registered_total",
			Help:      "Agent wallets registered, seed wallets included.",
		}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "episim",
			Subsystem: "funding",
			Name:      "simulations_total",
			Help:      "Funding simulations by final status.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(m.transfers, m.feesBurned, m.confirmLatency, m.registrations, m.simulations)
	}
	return m
}

func (m *Metrics) ObserveTransfer(outcome string, fee float64) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(outcome).Inc()
	if fee > 0 {
		m.feesBurned.Add(fee)
	}
}

func (m *Metrics) ObserveConfirmation(d time.Duration) {
	if m == nil {
		return
	}
	m.confirmLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *Metrics) observeSimulation(status SimulationStatus) {
	if m == nil {
		return
	}
	m.simulations.WithLabelValues(string(status)).Inc()
}
