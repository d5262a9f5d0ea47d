// Package metrics provides Prometheus metrics for the nurture engine.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NurtureRunsTotal counts completed full nurture runs.
	NurtureRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nurture",
		Name:      "runs_total",
		Help:      "Number of completed nurture runs.",
	})

	// StageAdvancedTotal counts stage transitions, labelled by track and stage.
	StageAdvancedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nurture",
		Name:      "stage_advanced_total",
		Help:      "Number of subscribers advanced to a stage.",
	}, []string{"track", "stage"})

	// DispatchErrorsTotal counts failed stage email dispatches by track.
	DispatchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nurture",
		Name:      "dispatch_errors_total",
		Help:      "Number of failed stage email dispatches.",
	}, []string{"track"})

	// TrackFailuresTotal counts runs in which an entire track failed.
	TrackFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nurture",
		Name:      "track_failures_total",
		Help:      "Number of track-level run failures.",
	}, []string{"track"})

	// EngagementEventsTotal counts recorded engagement events by type.
	EngagementEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nurture",
		Name:      "engagement_events_total",
		Help:      "Number of recorded engagement events.",
	}, []string{"event_type"})
)
