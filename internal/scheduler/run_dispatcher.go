package scheduler

import (
	"context"
	"time"

	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"
)

// RunDispatcher enqueues a nurture run on a fixed interval. The queue's
// uniqueness window keeps multiple dispatcher replicas from stacking runs.
type RunDispatcher struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewRunDispatcher(cfg config.SchedulerConfig, client *Client, log *logger.Logger) *RunDispatcher {
	interval := cfg.GetNurtureRunInterval()
	if interval <= 0 {
		interval = time.Hour
	}

	return &RunDispatcher{
		client:   client,
		interval: interval,
		log:      log,
	}
}

func (d *RunDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := d.client.EnqueueNurtureRun(ctx, NurtureRunPayload{TriggeredBy: "interval"}, d.interval/2)
		if err != nil {
			d.log.Warn("nurture run enqueue failed", "error", err)
			continue
		}
		d.log.Debug("nurture run enqueued", "interval", d.interval)
	}
}
