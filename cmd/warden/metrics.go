package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_events_received",
	Help: "Number of inbound events accepted over HTTP",
}, []string{"type"})

var eventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_events_rejected",
	Help: "Number of inbound events rejected as malformed",
}, []string{"type"})

var eventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_events_failed",
	Help: "Number of accepted events which failed during processing",
}, []string{"type"})

var eventsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_events_in_flight",
	Help: "Number of events currently being processed",
})

var bindingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_binding_requests",
	Help: "Number of requests made to the chat platform binding",
}, []string{"action", "status"})

var ledgerSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "warden_ledger_size",
	Help: "Number of entries in each moderation ledger, sampled periodically",
}, []string{"ledger"})
