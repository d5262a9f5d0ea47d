// Package scoring computes the 0-100 priority score and tier for a lead from
// facility size, projected savings, and the engagement accumulator.
//
// The calculator is a pure function over its inputs: no I/O, no clock, no
// side effects. Callers persist the result themselves, so a stored score is
// only ever a cache of what this package would recompute.
package scoring

import (
	"fmt"

	"nurture_backend/internal/leads/domain"
)

// scoreVersion tracks the scoring model for debugging and analysis.
// Bump this when changing scoring logic significantly.
const scoreVersion = "2026-v1"

// Breakdown reports the per-factor contribution to a score.
type Breakdown struct {
	Facility   int `json:"facility"`
	Savings    int `json:"savings"`
	Engagement int `json:"engagement"`
}

// Result is the output of a score computation.
type Result struct {
	Score     int         `json:"score"`
	Tier      domain.Tier `json:"tier"`
	Breakdown Breakdown   `json:"breakdown"`
	Version   string      `json:"version"`
}

// Calculator scores leads against a fixed band policy.
type Calculator struct {
	bands Bands
}

// NewCalculator creates a calculator with the given band policy.
func NewCalculator(bands Bands) (*Calculator, error) {
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{bands: bands}, nil
}

// Score computes the priority score for the given inputs.
// Inputs must be non-negative; a negative input is a caller contract
// violation and panics rather than producing a quietly wrong score.
func (c *Calculator) Score(facilitySize int, projectedSavings int64, engagement int) Result {
	if facilitySize < 0 || projectedSavings < 0 || engagement < 0 {
		panic(fmt.Sprintf("scoring: negative input (facility=%d savings=%d engagement=%d)",
			facilitySize, projectedSavings, engagement))
	}

	breakdown := Breakdown{
		Facility:   pointsFor(c.bands.Facility, int64(facilitySize)),
		Savings:    pointsFor(c.bands.Savings, projectedSavings),
		Engagement: pointsFor(c.bands.Engagement, int64(engagement)),
	}

	score := breakdown.Facility + breakdown.Savings + breakdown.Engagement

	return Result{
		Score:     score,
		Tier:      domain.TierForScore(score),
		Breakdown: breakdown,
		Version:   scoreVersion,
	}
}
