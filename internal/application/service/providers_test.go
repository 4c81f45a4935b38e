package service

import (
	"context"
	"errors"
	"testing"

	"proofdrop-scorer/internal/domain/service"
	"proofdrop-scorer/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSubgraph struct {
	governance bool
	airdrops   bool
	votes      int
	claims     int
	err        error
}

func (f *fakeSubgraph) HasGovernanceEndpoint() bool { return f.governance }

func (f *fakeSubgraph) HasAirdropsEndpoint() bool { return f.airdrops }

func (f *fakeSubgraph) GovernanceVotes(ctx context.Context, wallet string) (int, error) {
	return f.votes, f.err
}

func (f *fakeSubgraph) AirdropClaims(ctx context.Context, wallet string) (int, error) {
	return f.claims, f.err
}

type fakeActivity struct {
	votes int64
	defi  int64
	err   error
}

func (f *fakeActivity) CountGovernanceVotes(ctx context.Context, address string) (int64, error) {
	return f.votes, f.err
}

func (f *fakeActivity) CountDeFiActions(ctx context.Context, address string) (int64, error) {
	return f.defi, f.err
}

func TestNewProviderCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("all backends", func(t *testing.T) {
		catalog := NewProviderCatalog(
			&fakeSubgraph{governance: true, airdrops: true, votes: 2, claims: 4},
			&fakeActivity{votes: 3, defi: 11},
		)
		require.Len(t, catalog, 4)

		tests := []struct {
			name   string
			metric service.SupplementalMetric
			want   int
		}{
			{ProviderTheGraphGovernance, service.MetricGovernanceVotes, 2},
			{ProviderTheGraphAirdrops, service.MetricAirdropClaims, 4},
			{ProviderNeo4jGovernance, service.MetricGovernanceVotes, 3},
			{ProviderNeo4jDeFi, service.MetricDeFiActions, 11},
		}
		for _, tt := range tests {
			p := catalog[tt.name]
			require.NotNil(t, p, tt.name)
			assert.Equal(t, tt.name, p.Name())
			assert.Equal(t, tt.metric, p.Metric())

			n, err := p.Count(ctx, "0xabc")
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		}
	})

	t.Run("missing endpoints and no graph", func(t *testing.T) {
		catalog := NewProviderCatalog(&fakeSubgraph{airdrops: true}, nil)
		assert.Len(t, catalog, 1)
		assert.Contains(t, catalog, ProviderTheGraphAirdrops)
	})

	t.Run("nothing configured", func(t *testing.T) {
		assert.Empty(t, NewProviderCatalog(nil, nil))
	})

	t.Run("repository errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		catalog := NewProviderCatalog(nil, &fakeActivity{err: boom})

		_, err := catalog[ProviderNeo4jDeFi].Count(ctx, "0xabc")
		assert.ErrorIs(t, err, boom)
	})
}

func TestSelectProviders(t *testing.T) {
	catalog := NewProviderCatalog(
		&fakeSubgraph{governance: true, airdrops: true},
		&fakeActivity{},
	)

	selected := SelectProviders([]string{
		ProviderNeo4jDeFi,
		"moralis",
		ProviderTheGraphGovernance,
		ProviderNeo4jDeFi,
		ProviderTheGraphAirdrops,
	}, catalog, logger.NewNop())

	names := make([]string, 0, len(selected))
	for _, p := range selected {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{ProviderNeo4jDeFi, ProviderTheGraphGovernance, ProviderTheGraphAirdrops}, names)

	assert.Empty(t, SelectProviders(nil, catalog, logger.NewNop()))
}

func TestSelectProviders_SharedMetric(t *testing.T) {
	catalog := NewProviderCatalog(&fakeSubgraph{governance: true}, &fakeActivity{})
	core, logs := observer.New(zapcore.WarnLevel)

	selected := SelectProviders([]string{
		ProviderTheGraphGovernance,
		ProviderNeo4jGovernance,
		ProviderNeo4jDeFi,
	}, catalog, &logger.Logger{Logger: zap.New(core)})

	require.Len(t, selected, 3)
	shared := logs.FilterMessage("Providers share a metric, their counts are added").All()
	require.Len(t, shared, 1)
	assert.Equal(t, ProviderNeo4jGovernance, shared[0].ContextMap()["provider"])
	assert.Equal(t, ProviderTheGraphGovernance, shared[0].ContextMap()["previous"])

	core, logs = observer.New(zapcore.WarnLevel)
	SelectProviders([]string{ProviderTheGraphGovernance, ProviderNeo4jDeFi}, catalog, &logger.Logger{Logger: zap.New(core)})
	assert.Zero(t, logs.Len())
}
