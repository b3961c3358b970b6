// Package metrics exposes prometheus instruments for the live session core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_live_session_transitions_total",
		Help: "Successful live session status transitions",
	}, []string{"from", "to"})

	transitionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lms_live_session_transition_conflicts_total",
		Help: "Lifecycle writes rejected because the stored status changed underneath",
	})

	sessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_live_sessions_created_total",
		Help: "Live sessions created by origin",
	}, []string{"origin"}) // origin=manual|autogen

	autogenRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_live_session_autogen_rejected_total",
		Help: "Auto-generation requests rejected by reason",
	}, []string{"reason"}) // reason=forbidden|no_courses

	remindersArmed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lms_live_session_reminders_armed",
		Help: "Reminder timers currently armed in this process",
	})

	reminderPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_live_session_reminder_passes_total",
		Help: "Reminder fire passes by outcome",
	}, []string{"outcome"}) // outcome=sent|already_sent|inactive|*_failed|aborted|panic

	reminderSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_live_session_reminder_sends_total",
		Help: "Per-recipient reminder notification attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	broadcastFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_live_session_broadcast_failures_total",
		Help: "Lifecycle broadcasts that could not be fanned out",
	}, []string{"event"})
)

func RecordTransition(from, to string) { sessionTransitions.WithLabelValues(from, to).Inc() }

func RecordTransitionConflict() { transitionConflicts.Inc() }

func RecordSessionCreated(origin string) { sessionsCreated.WithLabelValues(origin).Inc() }

func RecordAutogenRejected(reason string) { autogenRejected.WithLabelValues(reason).Inc() }

func SetRemindersArmed(n int) { remindersArmed.Set(float64(n)) }

func RecordReminderPass(outcome string) { reminderPasses.WithLabelValues(outcome).Inc() }

func RecordReminderSend(success bool) {
	if success {
		reminderSends.WithLabelValues("success").Inc()
		return
	}
	reminderSends.WithLabelValues("failure").Inc()
}

func RecordBroadcastFailure(event string) { broadcastFailures.WithLabelValues(event).Inc() }
