package service

import "proofdrop-scorer/internal/domain/entity"

// BadgeClassifier maps a score to a badge using a descending threshold ladder
type BadgeClassifier struct {
	tiers    []entity.BadgeTier
	fallback entity.Badge
}

// NewBadgeClassifier creates a classifier. Scores below every tier map to Newbie.
func NewBadgeClassifier(tiers []entity.BadgeTier) *BadgeClassifier {
	return &BadgeClassifier{
		tiers:    append([]entity.BadgeTier(nil), tiers...),
		fallback: entity.BadgeNewbie,
	}
}

// Classify returns the badge for score. Tier minimums are inclusive.
func (c *BadgeClassifier) Classify(score int) entity.Badge {
	for _, tier := range c.tiers {
		if score >= tier.Min {
			return tier.Badge
		}
	}
	return c.fallback
}

// Tiers returns a copy of the badge ladder including the fallback tier
func (c *BadgeClassifier) Tiers() []entity.BadgeTier {
	out := make([]entity.BadgeTier, 0, len(c.tiers)+1)
	out = append(out, c.tiers...)
	if n := len(out); n > 0 && out[n-1].Min <= minScore {
		return out
	}
	return append(out, entity.BadgeTier{Min: minScore, Badge: c.fallback})
}
