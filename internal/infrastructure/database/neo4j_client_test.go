package database

import (
	"context"
	"testing"
	"time"

	"proofdrop-scorer/internal/infrastructure/config"
	"proofdrop-scorer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeo4JClient_SessionsAreReadOnly(t *testing.T) {
	client := NewNeo4JClient(&config.Neo4JConfig{Database: "wallets"}, logger.NewNop())

	cfg := client.sessionConfig()
	assert.Equal(t, neo4j.AccessModeRead, cfg.AccessMode)
	assert.Equal(t, "wallets", cfg.DatabaseName)
}

func TestNeo4JClient_ConnectFailureLeavesClientDisconnected(t *testing.T) {
	client := NewNeo4JClient(&config.Neo4JConfig{
		URI:                          "bolt://127.0.0.1:1",
		Database:                     "neo4j",
		ConnectTimeout:               time.Second,
		MaxConnectionPoolSize:        1,
		ConnectionAcquisitionTimeout: time.Second,
	}, logger.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Error(t, client.Connect(ctx))
	assert.False(t, client.IsConnected(ctx))

	_, err := client.ReadSession(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}
