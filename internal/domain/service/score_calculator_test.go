package service

import (
	"math"
	"testing"

	"proofdrop-scorer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestScoreCalculator_Calculate(t *testing.T) {
	c := NewScoreCalculator(entity.DefaultScoringConfig())

	tests := []struct {
		name    string
		metrics entity.Metrics
		want    int
	}{
		{name: "empty", metrics: entity.Metrics{}, want: 0},
		{
			name: "every category maxed",
			metrics: entity.Metrics{
				GovernanceVotes:     5,
				DeFiActions:         10,
				UniqueContractCount: 20,
				AirdropsClaimed:     5,
				DexSwapCount:        25,
				TotalUSDBalance:     251,
			},
			want: 100,
		},
		{name: "six unique contracts", metrics: entity.Metrics{UniqueContractCount: 6}, want: 5},
		{name: "two dex swaps", metrics: entity.Metrics{DexSwapCount: 2}, want: 1},
		{name: "one dex swap", metrics: entity.Metrics{DexSwapCount: 1}, want: 0},
		{name: "governance middle tier", metrics: entity.Metrics{GovernanceVotes: 4}, want: 15},
		{name: "defi middle tier", metrics: entity.Metrics{DeFiActions: 9}, want: 10},
		{name: "airdrops lowest tier", metrics: entity.Metrics{AirdropsClaimed: 2}, want: 5},
		{
			name: "mixed",
			metrics: entity.Metrics{
				GovernanceVotes:     1,
				DeFiActions:         5,
				UniqueContractCount: 12,
				DexSwapCount:        16,
				TotalUSDBalance:     60,
			},
			want: 45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Calculate(tt.metrics).Score)
		})
	}
}

func TestScoreCalculator_BalanceBoundaries(t *testing.T) {
	c := NewScoreCalculator(entity.DefaultScoringConfig())

	tests := []struct {
		balance float64
		want    int
	}{
		{balance: 250.01, want: 15},
		{balance: 250, want: 10},
		{balance: 50.01, want: 10},
		{balance: 50, want: 5},
		{balance: 10, want: 5},
		{balance: 9.99, want: 0},
		{balance: 0, want: 0},
	}

	for _, tt := range tests {
		got := c.Calculate(entity.Metrics{TotalUSDBalance: tt.balance}).Score
		assert.Equal(t, tt.want, got, "balance %v", tt.balance)
	}
}

func TestScoreCalculator_Breakdown(t *testing.T) {
	c := NewScoreCalculator(entity.DefaultScoringConfig())
	m := entity.Metrics{
		GovernanceVotes:     3,
		DeFiActions:         1,
		UniqueContractCount: 7,
		AirdropsClaimed:     4,
		DexSwapCount:        30,
		TotalUSDBalance:     12.5,
	}

	result := c.Calculate(m)

	assert.Equal(t, entity.ScoreBreakdown{
		Governance:      3,
		DeFi:            1,
		UniqueContracts: 7,
		Airdrops:        4,
		DexSwaps:        30,
		TotalUSD:        12.5,
	}, result.Breakdown)
	assert.Equal(t, entity.CategoryPoints{
		Governance:      15,
		DeFi:            5,
		UniqueContracts: 5,
		Airdrops:        10,
		DexSwaps:        15,
		TotalUSD:        5,
	}, result.Points)
	assert.Equal(t, 55, result.Score)
}

func TestScoreCalculator_ClampsAndRounds(t *testing.T) {
	generous := entity.DefaultScoringConfig()
	generous.GovernanceVotes = entity.Ladder{{Min: 1, Points: 80}}
	generous.DeFiActions = entity.Ladder{{Min: 1, Points: 80}}

	c := NewScoreCalculator(generous)
	result := c.Calculate(entity.Metrics{GovernanceVotes: 1, DeFiActions: 1})
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 160.0, result.Points.Total())

	fractional := entity.DefaultScoringConfig()
	fractional.GovernanceVotes = entity.Ladder{{Min: 2, Points: 2.5}, {Min: 1, Points: 2.4}}
	c = NewScoreCalculator(fractional)
	assert.Equal(t, 3, c.Calculate(entity.Metrics{GovernanceVotes: 2}).Score)
	assert.Equal(t, 2, c.Calculate(entity.Metrics{GovernanceVotes: 1}).Score)
}

func TestScoreCalculator_Monotonic(t *testing.T) {
	c := NewScoreCalculator(entity.DefaultScoringConfig())
	base := entity.Metrics{GovernanceVotes: 1, DexSwapCount: 3, TotalUSDBalance: 20}

	bumps := []func(m *entity.Metrics){
		func(m *entity.Metrics) { m.GovernanceVotes++ },
		func(m *entity.Metrics) { m.DeFiActions++ },
		func(m *entity.Metrics) { m.UniqueContractCount++ },
		func(m *entity.Metrics) { m.AirdropsClaimed++ },
		func(m *entity.Metrics) { m.DexSwapCount++ },
		func(m *entity.Metrics) { m.TotalUSDBalance += 7.5 },
	}

	for i, bump := range bumps {
		m := base
		prev := c.Calculate(m).Score
		for step := 0; step < 40; step++ {
			bump(&m)
			next := c.Calculate(m).Score
			assert.GreaterOrEqual(t, next, prev, "bump %d step %d", i, step)
			prev = next
		}
	}
}

func TestScoreCalculator_Deterministic(t *testing.T) {
	c := NewScoreCalculator(entity.DefaultScoringConfig())
	m := entity.Metrics{GovernanceVotes: 2, DeFiActions: 6, UniqueContractCount: 11, DexSwapCount: 5, TotalUSDBalance: 99.99}

	first := c.Calculate(m)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Calculate(m))
	}
}

func TestBoundScore(t *testing.T) {
	assert.Equal(t, 0, boundScore(-12))
	assert.Equal(t, 0, boundScore(math.NaN()))
	assert.Equal(t, 0, boundScore(math.Inf(-1)))
	assert.Equal(t, 100, boundScore(math.Inf(1)))
	assert.Equal(t, 100, boundScore(99.5))
	assert.Equal(t, 99, boundScore(99.49))
	assert.Equal(t, 1, boundScore(0.5))
}
