package entity

import (
	"fmt"
	"math"
)

// Badge is the human-readable tier derived from a score
type Badge string

const (
	BadgeDiamond Badge = "Diamond"
	BadgeGold    Badge = "Gold"
	BadgeSilver  Badge = "Silver"
	BadgeBronze  Badge = "Bronze"
	BadgeNewbie  Badge = "Newbie"
)

// Tier is one rung of a threshold ladder.
// A value matches when it is >= Min, or > Min when Exclusive is set.
type Tier struct {
	Min       float64 `json:"min"`
	Exclusive bool    `json:"exclusive,omitempty"`
	Points    float64 `json:"points"`
}

// Matches reports whether v reaches the tier
func (t Tier) Matches(v float64) bool {
	if t.Exclusive {
		return v > t.Min
	}
	return v >= t.Min
}

// Ladder is an ordered list of tiers, highest threshold first
type Ladder []Tier

// Points returns the points of the first tier v reaches, or 0 when none matches
func (l Ladder) Points(v float64) float64 {
	for _, tier := range l {
		if tier.Matches(v) {
			return tier.Points
		}
	}
	return 0
}

// Validate checks that thresholds strictly descend and points never increase down the ladder
func (l Ladder) Validate() error {
	for i, tier := range l {
		if math.IsNaN(tier.Min) || math.IsInf(tier.Min, 0) {
			return fmt.Errorf("tier %d: threshold must be finite", i)
		}
		if math.IsNaN(tier.Points) || tier.Points < 0 {
			return fmt.Errorf("tier %d: points must be non-negative", i)
		}
		if i == 0 {
			continue
		}
		prev := l[i-1]
		if tier.Min >= prev.Min {
			return fmt.Errorf("tier %d: threshold %v does not descend from %v", i, tier.Min, prev.Min)
		}
		if tier.Points > prev.Points {
			return fmt.Errorf("tier %d: points %v exceed higher tier points %v", i, tier.Points, prev.Points)
		}
	}
	return nil
}

// ScoringConfig holds one ladder per metric category
type ScoringConfig struct {
	GovernanceVotes Ladder `json:"governanceVotes"`
	DeFiActions     Ladder `json:"defiActions"`
	UniqueContracts Ladder `json:"uniqueContracts"`
	AirdropsClaimed Ladder `json:"airdropsClaimed"`
	DexSwaps        Ladder `json:"dexSwaps"`
	TotalUSDBalance Ladder `json:"totalUsd"`
}

// DefaultScoringConfig returns the production ladders
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		GovernanceVotes: Ladder{{Min: 5, Points: 20}, {Min: 3, Points: 15}, {Min: 1, Points: 5}},
		DeFiActions:     Ladder{{Min: 10, Points: 20}, {Min: 5, Points: 10}, {Min: 1, Points: 5}},
		UniqueContracts: Ladder{{Min: 20, Points: 15}, {Min: 10, Points: 10}, {Min: 5, Points: 5}},
		AirdropsClaimed: Ladder{{Min: 5, Points: 15}, {Min: 3, Points: 10}, {Min: 1, Points: 5}},
		DexSwaps:        Ladder{{Min: 25, Points: 15}, {Min: 15, Points: 10}, {Min: 5, Points: 5}, {Min: 2, Points: 1}},
		TotalUSDBalance: Ladder{{Min: 250, Exclusive: true, Points: 15}, {Min: 50, Exclusive: true, Points: 10}, {Min: 10, Points: 5}},
	}
}

// Validate checks every ladder
func (c ScoringConfig) Validate() error {
	ladders := []struct {
		name   string
		ladder Ladder
	}{
		{"governance_votes", c.GovernanceVotes},
		{"defi_actions", c.DeFiActions},
		{"unique_contracts", c.UniqueContracts},
		{"airdrops_claimed", c.AirdropsClaimed},
		{"dex_swaps", c.DexSwaps},
		{"total_usd_balance", c.TotalUSDBalance},
	}
	for _, l := range ladders {
		if err := l.ladder.Validate(); err != nil {
			return fmt.Errorf("invalid %s ladder: %w", l.name, err)
		}
	}
	return nil
}

// BadgeTier maps a minimum score to a badge
type BadgeTier struct {
	Min   int   `json:"min"`
	Badge Badge `json:"badge"`
}

// DefaultBadgeTiers returns the badge ladder, highest first
func DefaultBadgeTiers() []BadgeTier {
	return []BadgeTier{
		{Min: 90, Badge: BadgeDiamond},
		{Min: 75, Badge: BadgeGold},
		{Min: 50, Badge: BadgeSilver},
		{Min: 25, Badge: BadgeBronze},
	}
}

// ValidateBadgeTiers checks that badge thresholds strictly descend and names are set
func ValidateBadgeTiers(tiers []BadgeTier) error {
	for i, tier := range tiers {
		if tier.Badge == "" {
			return fmt.Errorf("badge tier %d: name is empty", i)
		}
		if i > 0 && tier.Min >= tiers[i-1].Min {
			return fmt.Errorf("badge tier %d: threshold %d does not descend from %d", i, tier.Min, tiers[i-1].Min)
		}
	}
	return nil
}
