package entity

// Metrics is the normalized activity summary of one address.
// JSON field names are bound by the rendering layer and must stay stable.
type Metrics struct {
	TotalUSDBalance     float64 `json:"totalUsd"`
	DexSwapCount        int     `json:"dexSwaps"`
	UniqueContractCount int     `json:"uniqueContracts"`
	GovernanceVotes     int     `json:"governanceVotes"`
	DeFiActions         int     `json:"defiActions"`
	AirdropsClaimed     int     `json:"airdropsClaimed"`
}

// ScoreBreakdown echoes the raw metric values next to the score
type ScoreBreakdown struct {
	Governance      int     `json:"governance"`
	DeFi            int     `json:"defi"`
	UniqueContracts int     `json:"uniqueContracts"`
	Airdrops        int     `json:"airdrops"`
	DexSwaps        int     `json:"dexSwaps"`
	TotalUSD        float64 `json:"totalUsd"`
}

// CategoryPoints holds the points each metric category contributed before clamping
type CategoryPoints struct {
	Governance      float64 `json:"governance"`
	DeFi            float64 `json:"defi"`
	UniqueContracts float64 `json:"uniqueContracts"`
	Airdrops        float64 `json:"airdrops"`
	DexSwaps        float64 `json:"dexSwaps"`
	TotalUSD        float64 `json:"totalUsd"`
}

// Total returns the unclamped sum of all category points
func (p CategoryPoints) Total() float64 {
	return p.Governance + p.DeFi + p.UniqueContracts + p.Airdrops + p.DexSwaps + p.TotalUSD
}

// ScoreResult is the bounded score with its breakdown
type ScoreResult struct {
	Score     int            `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Points    CategoryPoints `json:"points"`
}

// SourceCount records what one supplemental provider contributed to a report
type SourceCount struct {
	Source  string `json:"source"`
	Metric  string `json:"metric"`
	Count   int    `json:"count"`
	Present bool   `json:"present"`
}

// Report is the object handed to the rendering layer
type Report struct {
	Address string        `json:"address"`
	Metrics Metrics       `json:"metrics"`
	Scoring ScoreResult   `json:"scoring"`
	Badge   Badge         `json:"badge"`
	Sources []SourceCount `json:"sources"`
}
