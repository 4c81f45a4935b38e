package service

import (
	"context"

	"proofdrop-scorer/internal/domain/entity"
)

// SupplementalMetric identifies which metric a supplemental count feeds
type SupplementalMetric string

const (
	MetricGovernanceVotes SupplementalMetric = "governance_votes"
	MetricDeFiActions     SupplementalMetric = "defi_actions"
	MetricAirdropClaims   SupplementalMetric = "airdrop_claims"
)

// CountProvider supplies one externally sourced count for an address
type CountProvider interface {
	// Name identifies the provider in logs and reports
	Name() string

	// Metric returns the metric the count is merged into
	Metric() SupplementalMetric

	// Count returns the non-negative count for a lowercased address
	Count(ctx context.Context, address string) (int, error)
}

// CountFunc is the lookup behind a CountProvider
type CountFunc func(ctx context.Context, address string) (int, error)

type countProvider struct {
	name   string
	metric SupplementalMetric
	count  CountFunc
}

// NewCountProvider adapts a lookup function into a CountProvider
func NewCountProvider(name string, metric SupplementalMetric, count CountFunc) CountProvider {
	return &countProvider{name: name, metric: metric, count: count}
}

func (p *countProvider) Name() string {
	return p.name
}

func (p *countProvider) Metric() SupplementalMetric {
	return p.metric
}

func (p *countProvider) Count(ctx context.Context, address string) (int, error) {
	return p.count(ctx, address)
}

// SupplementalCount is a typed optional count. Present is false when the provider failed.
type SupplementalCount struct {
	Source  string
	Metric  SupplementalMetric
	Count   int
	Present bool
}

// Value returns the count to merge; absent or negative counts contribute zero
func (s SupplementalCount) Value() int {
	if !s.Present || s.Count < 0 {
		return 0
	}
	return s.Count
}

// MergeSupplements folds counts into m additively, in order
func MergeSupplements(m entity.Metrics, counts []SupplementalCount) entity.Metrics {
	for _, c := range counts {
		switch c.Metric {
		case MetricGovernanceVotes:
			m.GovernanceVotes += c.Value()
		case MetricDeFiActions:
			m.DeFiActions += c.Value()
		case MetricAirdropClaims:
			m.AirdropsClaimed += c.Value()
		}
	}
	return m
}

// SourceCounts converts supplemental counts for the report
func SourceCounts(counts []SupplementalCount) []entity.SourceCount {
	out := make([]entity.SourceCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, entity.SourceCount{
			Source:  c.Source,
			Metric:  string(c.Metric),
			Count:   c.Value(),
			Present: c.Present,
		})
	}
	return out
}
