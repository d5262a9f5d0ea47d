package repository

import "context"

// TrackStats are reporting aggregates for one track.
type TrackStats struct {
	Subscribers int64
	Completed   int64
	EmailsSent  int64
}

// GetTrackStats returns reporting aggregates for the track. EmailsSent is the
// stage-history row count, which approximates dispatches (a crash between
// dispatch and state update can make the two drift by one).
func (r *Repository) GetTrackStats(ctx context.Context, track string) (TrackStats, error) {
	var stats TrackStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE sequence_completed),
			(SELECT count(*) FROM stage_sends ss JOIN subscribers s2 ON s2.id = ss.subscriber_id WHERE s2.track = $1)
		FROM subscribers
		WHERE track = $1
	`, track).Scan(&stats.Subscribers, &stats.Completed, &stats.EmailsSent)
	if err != nil {
		return TrackStats{}, err
	}
	return stats, nil
}
