package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "automod_event_duration_sec",
	Help: "Total duration of automod event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_event_processed",
	Help: "Number of events processed",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_event_errors",
	Help: "Number of events which failed processing",
}, []string{"type"})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_actions",
	Help: "Number of actions carried out, by kind",
}, []string{"kind"})

var enforcementFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_enforcement_failures",
	Help: "Number of failed calls to the chat platform, by kind",
}, []string{"kind"})

var confirmationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_confirmations",
	Help: "Confirmation workflow transitions, by outcome",
}, []string{"outcome"})

var warningsSuppressedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_warnings_suppressed",
	Help: "Number of warnings not delivered due to rate limiting",
})

var questionContextCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_question_context",
	Help: "Results of question lookback for affirmations",
}, []string{"result"})

var adminCommandCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_admin_commands",
	Help: "Number of admin commands, by command and status",
}, []string{"command", "status"})
