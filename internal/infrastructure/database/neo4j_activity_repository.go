package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"proofdrop-scorer/internal/domain/repository"
	"proofdrop-scorer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when a query runs before Connect succeeded
var ErrNotConnected = errors.New("neo4j client not connected")

// Node type the indexer assigns to DAO governance contracts
const daoContractNodeType = "DAO_CONTRACT"

const (
	governanceVotesQuery = `
		MATCH (w:Wallet {address: $address})-[r:SENT_TO]->(dao:Wallet)
		WHERE dao.node_type = $daoType
		RETURN count(r) AS count
	`

	defiActionsQuery = `
		MATCH (w:Wallet {address: $address})-[r:DEFI_OPERATION|LIQUIDITY_OPERATION]->()
		RETURN coalesce(sum(coalesce(r.tx_count, 1)), 0) AS count
	`
)

// Neo4JActivityRepository implements ActivityRepository over the indexer graph
type Neo4JActivityRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JActivityRepository creates a new Neo4J activity repository
func NewNeo4JActivityRepository(client *Neo4JClient, logger *logger.Logger) repository.ActivityRepository {
	return &Neo4JActivityRepository{
		client: client,
		logger: logger.WithComponent("neo4j-activity-repo"),
	}
}

// CountGovernanceVotes counts transactions sent from address to DAO contracts
func (r *Neo4JActivityRepository) CountGovernanceVotes(ctx context.Context, address string) (int64, error) {
	count, err := r.count(ctx, governanceVotesQuery, map[string]interface{}{
		"address": strings.ToLower(address),
		"daoType": daoContractNodeType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count governance votes: %w", err)
	}
	return count, nil
}

// CountDeFiActions counts DeFi and liquidity operations performed by address
func (r *Neo4JActivityRepository) CountDeFiActions(ctx context.Context, address string) (int64, error) {
	count, err := r.count(ctx, defiActionsQuery, map[string]interface{}{
		"address": strings.ToLower(address),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count DeFi actions: %w", err)
	}
	return count, nil
}

// count runs an aggregate query returning a single "count" column
func (r *Neo4JActivityRepository) count(ctx context.Context, query string, params map[string]interface{}) (int64, error) {
	session, err := r.client.ReadSession(ctx)
	if err != nil {
		return 0, err
	}
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		value, _ := record.Get("count")
		return value, nil
	})
	if err != nil {
		return 0, err
	}

	count, ok := toCount(result)
	if !ok {
		r.logger.Warn("Unexpected count type", zap.Any("value", result))
		return 0, fmt.Errorf("unexpected count type %T", result)
	}
	return count, nil
}

// toCount converts a Cypher numeric to a non-negative int64
func toCount(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return max(v, 0), true
	case float64:
		return max(int64(v), 0), true
	case nil:
		return 0, true
	default:
		return 0, false
	}
}
