package repository

import (
	"context"
)

// ActivityRepository defines read-only activity counts kept by the wallet graph indexer
type ActivityRepository interface {
	// CountGovernanceVotes counts transactions sent from address to DAO governance contracts
	CountGovernanceVotes(ctx context.Context, address string) (int64, error)

	// CountDeFiActions counts DeFi and liquidity operations performed by address
	CountDeFiActions(ctx context.Context, address string) (int64, error)
}
