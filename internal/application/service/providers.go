package service

import (
	"context"

	"proofdrop-scorer/internal/domain/repository"
	"proofdrop-scorer/internal/domain/service"
	"proofdrop-scorer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// Provider names accepted in providers.order
const (
	ProviderTheGraphGovernance = "thegraph-governance"
	ProviderTheGraphAirdrops   = "thegraph-airdrops"
	ProviderNeo4jGovernance    = "neo4j-governance"
	ProviderNeo4jDeFi          = "neo4j-defi"
)

// SubgraphCounter counts governance votes and airdrop claims from subgraph endpoints
type SubgraphCounter interface {
	HasGovernanceEndpoint() bool
	HasAirdropsEndpoint() bool
	GovernanceVotes(ctx context.Context, wallet string) (int, error)
	AirdropClaims(ctx context.Context, wallet string) (int, error)
}

// NewProviderCatalog builds every provider the configured backends can serve.
// A nil backend, or a subgraph without the matching endpoint, contributes nothing.
func NewProviderCatalog(subgraph SubgraphCounter, activity repository.ActivityRepository) map[string]service.CountProvider {
	catalog := make(map[string]service.CountProvider)

	if subgraph != nil {
		if subgraph.HasGovernanceEndpoint() {
			catalog[ProviderTheGraphGovernance] = service.NewCountProvider(
				ProviderTheGraphGovernance, service.MetricGovernanceVotes, subgraph.GovernanceVotes)
		}
		if subgraph.HasAirdropsEndpoint() {
			catalog[ProviderTheGraphAirdrops] = service.NewCountProvider(
				ProviderTheGraphAirdrops, service.MetricAirdropClaims, subgraph.AirdropClaims)
		}
	}

	if activity != nil {
		catalog[ProviderNeo4jGovernance] = service.NewCountProvider(
			ProviderNeo4jGovernance, service.MetricGovernanceVotes, int64Count(activity.CountGovernanceVotes))
		catalog[ProviderNeo4jDeFi] = service.NewCountProvider(
			ProviderNeo4jDeFi, service.MetricDeFiActions, int64Count(activity.CountDeFiActions))
	}

	return catalog
}

// SelectProviders resolves the configured order against the catalog.
// Unknown or unavailable names and duplicates are skipped. Two providers of the
// same metric are both kept and their counts add up, which is logged.
func SelectProviders(order []string, catalog map[string]service.CountProvider, log *logger.Logger) []service.CountProvider {
	selected := make([]service.CountProvider, 0, len(order))
	seen := make(map[string]bool, len(order))
	metricOwner := make(map[service.SupplementalMetric]string)

	for _, name := range order {
		if seen[name] {
			log.Warn("Duplicate provider in order, skipping", zap.String("provider", name))
			continue
		}
		seen[name] = true

		provider, ok := catalog[name]
		if !ok {
			log.Warn("Provider not available, skipping", zap.String("provider", name))
			continue
		}

		if owner, ok := metricOwner[provider.Metric()]; ok {
			log.Warn("Providers share a metric, their counts are added",
				zap.String("metric", string(provider.Metric())),
				zap.String("provider", name),
				zap.String("previous", owner))
		} else {
			metricOwner[provider.Metric()] = name
		}
		selected = append(selected, provider)
	}

	return selected
}

func int64Count(fn func(ctx context.Context, address string) (int64, error)) service.CountFunc {
	return func(ctx context.Context, address string) (int, error) {
		n, err := fn(ctx, address)
		if err != nil {
			return 0, err
		}
		return int(n), nil
	}
}
