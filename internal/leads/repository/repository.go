// Package repository provides Postgres persistence for nurture subscribers.
// One row per track membership: a person who is both a calculator lead and a
// newsletter signup has two independent rows with independent nurture state.
package repository

import (
	"context"
	"errors"
	"time"

	"nurture_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("subscriber not found")
	ErrDuplicate = errors.New("subscriber already exists for track")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Subscriber is one lead's membership in a single nurture track.
type Subscriber struct {
	ID                uuid.UUID
	Track             string
	Email             string
	FirstName         string
	Company           string
	FacilitySize      int
	ProjectedSavings  int64
	Engagement        int
	Score             int
	Tier              domain.Tier
	LastStageSent     *string // nil until the first stage has been sent
	LastStageSentAt   *time.Time
	SequenceCompleted bool
	LastEngagementAt  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StageSend is one entry in a subscriber's ordered stage history.
type StageSend struct {
	Stage  string
	SentAt time.Time
}

const subscriberColumns = `id, track, email, first_name, company, facility_size, projected_savings,
	engagement, score, tier, last_stage_sent, last_stage_sent_at, sequence_completed,
	last_engagement_at, created_at, updated_at`

func scanSubscriber(row pgx.Row) (Subscriber, error) {
	var sub Subscriber
	var tier string
	err := row.Scan(
		&sub.ID, &sub.Track, &sub.Email, &sub.FirstName, &sub.Company, &sub.FacilitySize,
		&sub.ProjectedSavings, &sub.Engagement, &sub.Score, &tier, &sub.LastStageSent,
		&sub.LastStageSentAt, &sub.SequenceCompleted, &sub.LastEngagementAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return Subscriber{}, err
	}
	sub.Tier = domain.Tier(tier)
	return sub, nil
}

type CreateSubscriberParams struct {
	Track            string
	Email            string
	FirstName        string
	Company          string
	FacilitySize     int
	ProjectedSavings int64
	Score            int
	Tier             domain.Tier
}

func (r *Repository) Create(ctx context.Context, params CreateSubscriberParams) (Subscriber, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO subscribers (track, email, first_name, company, facility_size, projected_savings, score, tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+subscriberColumns,
		params.Track, params.Email, params.FirstName, params.Company,
		params.FacilitySize, params.ProjectedSavings, params.Score, string(params.Tier),
	)

	sub, err := scanSubscriber(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Subscriber{}, ErrDuplicate
		}
		return Subscriber{}, err
	}

	return sub, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Subscriber, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id)
	sub, err := scanSubscriber(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	if err != nil {
		return Subscriber{}, err
	}
	return sub, nil
}

func (r *Repository) GetByTrackEmail(ctx context.Context, track, email string) (Subscriber, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE track = $1 AND email = $2`,
		track, email,
	)
	sub, err := scanSubscriber(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	if err != nil {
		return Subscriber{}, err
	}
	return sub, nil
}

// ListDueForFirstStage returns subscribers in the track that have never been
// sent a stage and were created on or before the cutoff. Completed sequences
// never match because the first stage requires last_stage_sent to be null.
func (r *Repository) ListDueForFirstStage(ctx context.Context, track string, cutoff time.Time, limit int) ([]Subscriber, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE track = $1 AND last_stage_sent IS NULL AND NOT sequence_completed AND created_at <= $2
		ORDER BY created_at ASC
		LIMIT $3
	`, track, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubscribers(rows)
}

// ListDueForStage returns subscribers whose last sent stage is prevStage and
// whose previous send is at or before the cutoff.
func (r *Repository) ListDueForStage(ctx context.Context, track, prevStage string, cutoff time.Time, limit int) ([]Subscriber, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE track = $1 AND last_stage_sent = $2 AND NOT sequence_completed AND last_stage_sent_at <= $3
		ORDER BY last_stage_sent_at ASC
		LIMIT $4
	`, track, prevStage, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubscribers(rows)
}

func collectSubscribers(rows pgx.Rows) ([]Subscriber, error) {
	items := make([]Subscriber, 0)
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sub)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

type AdvanceStageParams struct {
	ID        uuid.UUID
	FromStage *string // nil when advancing from the unsent state
	ToStage   string
	SentAt    time.Time
	Terminal  bool
}

// AdvanceStage performs the conditional stage transition for one subscriber.
// The update only applies while the row is still in the expected pre-transition
// state, so an overlapping run that already advanced the record makes this a
// no-op: it returns (false, nil) and the caller skips the record.
// The stage-history append commits in the same transaction as the transition.
func (r *Repository) AdvanceStage(ctx context.Context, params AdvanceStageParams) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE subscribers
		SET last_stage_sent = $2,
			last_stage_sent_at = $3,
			sequence_completed = sequence_completed OR $4,
			updated_at = now()
		WHERE id = $1
			AND last_stage_sent IS NOT DISTINCT FROM $5
			AND NOT sequence_completed
	`, params.ID, params.ToStage, params.SentAt, params.Terminal, params.FromStage)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stage_sends (subscriber_id, stage, sent_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subscriber_id, stage) DO NOTHING
	`, params.ID, params.ToStage, params.SentAt)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}

// ListStageHistory returns the subscriber's stage sends in send order.
func (r *Repository) ListStageHistory(ctx context.Context, id uuid.UUID) ([]StageSend, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT stage, sent_at FROM stage_sends WHERE subscriber_id = $1 ORDER BY sent_at ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StageSend, 0)
	for rows.Next() {
		var send StageSend
		if err := rows.Scan(&send.Stage, &send.SentAt); err != nil {
			return nil, err
		}
		items = append(items, send)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}
