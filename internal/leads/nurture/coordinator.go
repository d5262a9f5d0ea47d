package nurture

import (
	"context"

	"nurture_backend/platform/logger"
	"nurture_backend/platform/metrics"
)

// RunReport aggregates one full pass across all tracks.
type RunReport struct {
	Tracks        []TrackResult
	TrackFailures map[string]string // track name -> fatal failure for that track's run
	TotalAdvanced int
	TotalErrors   int
}

// Coordinator orchestrates one full nurture pass across all configured
// tracks. It is the unit the time-based trigger invokes; re-invoking it at
// any time is safe because all stage transitions are conditional.
type Coordinator struct {
	scheduler *Scheduler
	tracks    []Track
	log       *logger.Logger
}

// NewCoordinator creates a coordinator over the given track order.
func NewCoordinator(scheduler *Scheduler, tracks []Track, log *logger.Logger) *Coordinator {
	return &Coordinator{
		scheduler: scheduler,
		tracks:    tracks,
		log:       log,
	}
}

// RunAll runs every track in its configured order. A track whose store access
// fails is recorded as a track failure and the remaining tracks still run.
// Record-level errors never escape as errors; they are aggregated in the
// report.
func (c *Coordinator) RunAll(ctx context.Context) RunReport {
	report := RunReport{
		Tracks:        make([]TrackResult, 0, len(c.tracks)),
		TrackFailures: make(map[string]string),
	}

	for _, track := range c.tracks {
		var trackLog *logger.Logger
		if c.log != nil {
			trackLog = c.log.WithTrack(track.Name)
		}

		result, err := c.scheduler.AdvanceDueStages(ctx, track)
		if err != nil {
			metrics.TrackFailuresTotal.WithLabelValues(track.Name).Inc()
			report.TrackFailures[track.Name] = err.Error()
			if trackLog != nil {
				trackLog.Error("track run failed", "error", err)
			}
			continue
		}

		if stats, err := c.scheduler.repo.GetTrackStats(ctx, track.Name); err == nil {
			result.EmailsSent = stats.EmailsSent
		} else if trackLog != nil {
			trackLog.Warn("track stats unavailable", "error", err)
		}

		report.Tracks = append(report.Tracks, result)
		report.TotalAdvanced += result.Advanced
		report.TotalErrors += len(result.Errors)
	}

	metrics.NurtureRunsTotal.Inc()
	if c.log != nil {
		c.log.RunReport(report.TotalAdvanced, report.TotalErrors, len(report.TrackFailures))
	}

	return report
}
