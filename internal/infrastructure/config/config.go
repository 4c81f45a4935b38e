package config

import (
	"fmt"
	"strings"
	"time"

	"proofdrop-scorer/internal/domain/entity"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Neo4J     Neo4JConfig     `mapstructure:"neo4j"`
	Scoring   ScoringSettings `mapstructure:"scoring"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env            string        `mapstructure:"env"`
	LogLevel       string        `mapstructure:"log_level"`
	HTTPPort       int           `mapstructure:"http_port"`
	WorkerPoolSize int           `mapstructure:"worker_pool_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ChainID        int           `mapstructure:"chain_id"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL                string        `mapstructure:"url"`
	SubjectPrefix      string        `mapstructure:"subject_prefix"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingMessages int           `mapstructure:"max_pending_messages"`
	Enabled            bool          `mapstructure:"enabled"`
}

// Neo4JConfig represents Neo4J configuration for the indexer graph
type Neo4JConfig struct {
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
	Enabled                      bool          `mapstructure:"enabled"`
}

// ScoringSettings represents the scoring engine configuration
type ScoringSettings struct {
	DexRouterAddresses []string            `mapstructure:"dex_router_addresses"`
	Ladders            LadderSettings      `mapstructure:"ladders"`
	Badges             []BadgeTierSettings `mapstructure:"badges"`
}

// LadderSettings holds optional ladder overrides; an empty ladder keeps the default
type LadderSettings struct {
	GovernanceVotes []TierSettings `mapstructure:"governance_votes"`
	DeFiActions     []TierSettings `mapstructure:"defi_actions"`
	UniqueContracts []TierSettings `mapstructure:"unique_contracts"`
	AirdropsClaimed []TierSettings `mapstructure:"airdrops_claimed"`
	DexSwaps        []TierSettings `mapstructure:"dex_swaps"`
	TotalUSDBalance []TierSettings `mapstructure:"total_usd_balance"`
}

// TierSettings represents one ladder tier
type TierSettings struct {
	Min       float64 `mapstructure:"min"`
	Exclusive bool    `mapstructure:"exclusive"`
	Points    float64 `mapstructure:"points"`
}

// BadgeTierSettings represents one badge tier
type BadgeTierSettings struct {
	Min  int    `mapstructure:"min"`
	Name string `mapstructure:"name"`
}

// ProvidersConfig represents supplemental count provider configuration
type ProvidersConfig struct {
	Order    []string       `mapstructure:"order"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	TheGraph TheGraphConfig `mapstructure:"thegraph"`
}

// TheGraphConfig represents subgraph endpoint configuration
type TheGraphConfig struct {
	GovernanceEndpoint string        `mapstructure:"governance_endpoint"`
	AirdropsEndpoint   string        `mapstructure:"airdrops_endpoint"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	Burst              int           `mapstructure:"burst"`
	BreakerFailures    uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
	BreakerInterval    time.Duration `mapstructure:"breaker_interval"`
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/proofdrop-scorer")

	return load(v)
}

// LoadFile loads configuration from an explicit file path
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// Environment variables
	v.AutomaticEnv()

	// Map environment variables to nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := config.ScoringConfig(); err != nil {
		return nil, err
	}
	if _, err := config.BadgeTiers(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ScoringConfig builds the validated scoring ladders, falling back to defaults per category
func (c *Config) ScoringConfig() (entity.ScoringConfig, error) {
	defaults := entity.DefaultScoringConfig()
	l := c.Scoring.Ladders

	cfg := entity.ScoringConfig{
		GovernanceVotes: ladderOrDefault(l.GovernanceVotes, defaults.GovernanceVotes),
		DeFiActions:     ladderOrDefault(l.DeFiActions, defaults.DeFiActions),
		UniqueContracts: ladderOrDefault(l.UniqueContracts, defaults.UniqueContracts),
		AirdropsClaimed: ladderOrDefault(l.AirdropsClaimed, defaults.AirdropsClaimed),
		DexSwaps:        ladderOrDefault(l.DexSwaps, defaults.DexSwaps),
		TotalUSDBalance: ladderOrDefault(l.TotalUSDBalance, defaults.TotalUSDBalance),
	}
	if err := cfg.Validate(); err != nil {
		return entity.ScoringConfig{}, fmt.Errorf("invalid scoring config: %w", err)
	}
	return cfg, nil
}

// BadgeTiers builds the validated badge ladder, falling back to the default ladder
func (c *Config) BadgeTiers() ([]entity.BadgeTier, error) {
	if len(c.Scoring.Badges) == 0 {
		return entity.DefaultBadgeTiers(), nil
	}

	tiers := make([]entity.BadgeTier, 0, len(c.Scoring.Badges))
	for _, b := range c.Scoring.Badges {
		tiers = append(tiers, entity.BadgeTier{Min: b.Min, Badge: entity.Badge(b.Name)})
	}
	if err := entity.ValidateBadgeTiers(tiers); err != nil {
		return nil, fmt.Errorf("invalid badge config: %w", err)
	}
	return tiers, nil
}

func ladderOrDefault(tiers []TierSettings, fallback entity.Ladder) entity.Ladder {
	if len(tiers) == 0 {
		return fallback
	}
	ladder := make(entity.Ladder, 0, len(tiers))
	for _, t := range tiers {
		ladder = append(ladder, entity.Tier{Min: t.Min, Exclusive: t.Exclusive, Points: t.Points})
	}
	return ladder
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.http_port", 8080)
	v.SetDefault("app.worker_pool_size", 10)
	v.SetDefault("app.request_timeout", "15s")
	v.SetDefault("app.chain_id", 1)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "proofdrop")
	v.SetDefault("nats.consumer_group", "proofdrop-scorer")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.max_pending_messages", 1000)
	v.SetDefault("nats.enabled", true)

	// Neo4J defaults
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.connect_timeout", "10s")
	v.SetDefault("neo4j.max_connection_pool_size", 50)
	v.SetDefault("neo4j.connection_acquisition_timeout", "60s")
	v.SetDefault("neo4j.enabled", false)

	// Scoring defaults (mainnet routers: Uniswap V2/V3/Universal, SushiSwap, 1inch v5)
	v.SetDefault("scoring.dex_router_addresses", []string{
		"0x7a250d5630b4cf539739df2c5dacb4c659f2488d",
		"0xe592427a0aece92de3edee1f18e0157c05861564",
		"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45",
		"0x3fc91a3afd70395cd496c647d5a6cc9d4b2b7fad",
		"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f",
		"0x1111111254eeb25477b68fb85ed929f73a960582",
	})

	// Provider defaults. Counts of providers feeding the same metric are added,
	// so list one governance source (thegraph-governance or neo4j-governance)
	// unless the two backends index disjoint votes.
	v.SetDefault("providers.order", []string{
		"thegraph-governance",
		"thegraph-airdrops",
		"neo4j-defi",
	})
	v.SetDefault("providers.timeout", "5s")
	v.SetDefault("providers.thegraph.governance_endpoint", "")
	v.SetDefault("providers.thegraph.airdrops_endpoint", "")
	v.SetDefault("providers.thegraph.requests_per_second", 5)
	v.SetDefault("providers.thegraph.burst", 10)
	v.SetDefault("providers.thegraph.breaker_failures", 3)
	v.SetDefault("providers.thegraph.breaker_timeout", "60s")
	v.SetDefault("providers.thegraph.breaker_interval", "60s")
	v.SetDefault("providers.thegraph.http_timeout", "10s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Bind env for NATS URL
	v.BindEnv("nats.url", "NATS_URL")
}
