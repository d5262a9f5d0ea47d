package repository

import (
	"context"
	"errors"
	"time"

	"nurture_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// RescoreFunc recomputes score and tier from the post-event inputs. It is
// supplied by the caller so the accumulator bump and the score refresh commit
// in one transaction without this package knowing the scoring policy.
type RescoreFunc func(facilitySize int, projectedSavings int64, engagement int) (score int, tier domain.Tier)

type RecordEngagementParams struct {
	SubscriberID uuid.UUID
	EventID      string // dedup key; required
	EventType    domain.EventType
	Points       int
	OccurredAt   time.Time
}

type RecordEngagementResult struct {
	Duplicate     bool
	Accumulator   int
	Score         int
	PreviousScore int
	Tier          domain.Tier
	PreviousTier  domain.Tier
}

// RecordEngagement atomically applies one engagement event: it registers the
// event id (a replayed id makes the whole call a no-op), bumps the
// accumulator, and persists the recomputed score and tier.
// Returns ErrNotFound when the subscriber does not exist; the dedup ledger is
// rolled back in that case so the failed call leaves no trace.
func (r *Repository) RecordEngagement(ctx context.Context, params RecordEngagementParams, rescore RescoreFunc) (RecordEngagementResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return RecordEngagementResult{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO engagement_events (event_id, subscriber_id, event_type, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`, params.EventID, params.SubscriberID, string(params.EventType), params.Points)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return RecordEngagementResult{}, ErrNotFound
		}
		return RecordEngagementResult{}, err
	}
	if tag.RowsAffected() == 0 {
		// Already processed; report the current state without mutating it.
		sub, err := r.GetByID(ctx, params.SubscriberID)
		if err != nil {
			return RecordEngagementResult{}, err
		}
		return RecordEngagementResult{
			Duplicate:     true,
			Accumulator:   sub.Engagement,
			Score:         sub.Score,
			PreviousScore: sub.Score,
			Tier:          sub.Tier,
			PreviousTier:  sub.Tier,
		}, nil
	}

	var facilitySize int
	var projectedSavings int64
	var accumulator, previousScore int
	var previousTier string
	err = tx.QueryRow(ctx, `
		UPDATE subscribers
		SET engagement = engagement + $2,
			last_engagement_at = $3,
			updated_at = now()
		WHERE id = $1
		RETURNING facility_size, projected_savings, engagement, score, tier
	`, params.SubscriberID, params.Points, params.OccurredAt).Scan(
		&facilitySize, &projectedSavings, &accumulator, &previousScore, &previousTier,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return RecordEngagementResult{}, ErrNotFound
	}
	if err != nil {
		return RecordEngagementResult{}, err
	}

	score, tier := rescore(facilitySize, projectedSavings, accumulator)

	_, err = tx.Exec(ctx, `
		UPDATE subscribers SET score = $2, tier = $3, updated_at = now() WHERE id = $1
	`, params.SubscriberID, score, string(tier))
	if err != nil {
		return RecordEngagementResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return RecordEngagementResult{}, err
	}

	return RecordEngagementResult{
		Accumulator:   accumulator,
		Score:         score,
		PreviousScore: previousScore,
		Tier:          tier,
		PreviousTier:  domain.Tier(previousTier),
	}, nil
}
