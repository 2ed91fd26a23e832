// Package metrics defines the Prometheus counters for ledger operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DebtsCreated counts debts created, labeled by whether the debtor was
	// resolved to an identity at creation time.
	DebtsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtrail_debts_created_total",
		Help: "Debts created, by whether the debtor was linked at creation.",
	}, []string{"linked"})

	// PaymentsApplied counts successful payment applications by gateway.
	PaymentsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtrail_payments_applied_total",
		Help: "Successful payments applied to debts, by gateway.",
	}, []string{"gateway"})

	// DuplicatePayments counts payment applications short-circuited by the
	// reference idempotency check.
	DuplicatePayments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debtrail_payments_duplicate_reference_total",
		Help: "Payment applications skipped because the reference was already recorded.",
	})

	// DebtsLinked counts debts attached to an identity by the linking service.
	DebtsLinked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debtrail_debts_linked_total",
		Help: "Debts linked to a debtor identity by phone number.",
	})

	// ProfileConflicts counts uniqueness conflicts hit during profile
	// reconciliation, by conflicting key.
	ProfileConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtrail_profile_conflicts_total",
		Help: "Uniqueness conflicts observed while reconciling profiles, by key.",
	}, []string{"key"})

	// RemindersSent counts overdue reminders dispatched to the notifier.
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debtrail_reminders_sent_total",
		Help: "Overdue-debt reminders dispatched to the notifier.",
	})
)
