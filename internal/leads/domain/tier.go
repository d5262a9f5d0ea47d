// Package domain holds the core lead types shared across the leads modules.
package domain

// Tier is the coarse priority classification derived from a lead's score.
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"
)

// Tier thresholds. Boundaries are inclusive on the lower edge.
const (
	HotThreshold  = 70
	WarmThreshold = 40
)

// TierForScore maps a 0-100 score to its tier.
func TierForScore(score int) Tier {
	switch {
	case score >= HotThreshold:
		return TierHot
	case score >= WarmThreshold:
		return TierWarm
	default:
		return TierCold
	}
}
