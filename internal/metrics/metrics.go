package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for the queue and booking flows. A nil
// *Metrics is valid and records nothing, so tests can pass nil.
type Metrics struct {
	queueJoins     prometheus.Counter
	queueInvites   *prometheus.CounterVec
	counterRepairs prometheus.Counter
	bookings       prometheus.Counter
	slotConflicts  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queueJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doctorgo",
			Subsystem: "queue",
			Name:      "joins_total",
			Help:      "Total successful queue joins",
		}),
		queueInvites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "doctorgo",
			Subsystem: "queue",
			Name:      "invites_total",
			Help:      "Total invite-next calls by outcome",
		}, []string{"outcome"}),
		counterRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doctorgo",
			Subsystem: "queue",
			Name:      "counter_repairs_total",
			Help:      "Times the denormalized queue length diverged and was recomputed",
		}),
		bookings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doctorgo",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total appointments created",
		}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doctorgo",
			Subsystem: "appointments",
			Name:      "slot_conflicts_total",
			Help:      "Bookings rejected because the slot was already claimed",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queueJoins, m.queueInvites, m.counterRepairs, m.bookings, m.slotConflicts)
	return m
}

func (m *Metrics) ObserveJoin() {
	if m == nil {
		return
	}
	m.queueJoins.Inc()
}

// ObserveInvite records an invite-next outcome: "invited" or "empty".
func (m *Metrics) ObserveInvite(outcome string) {
	if m == nil {
		return
	}
	m.queueInvites.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCounterRepair() {
	if m == nil {
		return
	}
	m.counterRepairs.Inc()
}

func (m *Metrics) ObserveBooking() {
	if m == nil {
		return
	}
	m.bookings.Inc()
}

func (m *Metrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}
