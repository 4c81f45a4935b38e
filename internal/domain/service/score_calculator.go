package service

import (
	"math"

	"proofdrop-scorer/internal/domain/entity"
)

const (
	minScore = 0
	maxScore = 100
)

// ScoreCalculator maps metrics to a bounded score using the configured ladders
type ScoreCalculator struct {
	config entity.ScoringConfig
}

// NewScoreCalculator creates a calculator. The config is expected to be validated by the caller.
func NewScoreCalculator(config entity.ScoringConfig) *ScoreCalculator {
	return &ScoreCalculator{config: config}
}

// Calculate scores the metrics. It is total and deterministic for every input.
func (c *ScoreCalculator) Calculate(m entity.Metrics) entity.ScoreResult {
	points := entity.CategoryPoints{
		Governance:      c.config.GovernanceVotes.Points(float64(m.GovernanceVotes)),
		DeFi:            c.config.DeFiActions.Points(float64(m.DeFiActions)),
		UniqueContracts: c.config.UniqueContracts.Points(float64(m.UniqueContractCount)),
		Airdrops:        c.config.AirdropsClaimed.Points(float64(m.AirdropsClaimed)),
		DexSwaps:        c.config.DexSwaps.Points(float64(m.DexSwapCount)),
		TotalUSD:        c.config.TotalUSDBalance.Points(m.TotalUSDBalance),
	}

	return entity.ScoreResult{
		Score: boundScore(points.Total()),
		Breakdown: entity.ScoreBreakdown{
			Governance:      m.GovernanceVotes,
			DeFi:            m.DeFiActions,
			UniqueContracts: m.UniqueContractCount,
			Airdrops:        m.AirdropsClaimed,
			DexSwaps:        m.DexSwapCount,
			TotalUSD:        m.TotalUSDBalance,
		},
		Points: points,
	}
}

// boundScore clamps to [0,100] and rounds half up
func boundScore(total float64) int {
	if math.IsNaN(total) {
		return minScore
	}
	clamped := math.Max(minScore, math.Min(maxScore, total))
	return int(math.Floor(clamped + 0.5))
}
