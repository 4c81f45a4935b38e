package thegraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"proofdrop-scorer/internal/infrastructure/config"
	"proofdrop-scorer/internal/infrastructure/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrEndpointNotConfigured is returned when a query targets an empty endpoint
	ErrEndpointNotConfigured = errors.New("subgraph endpoint not configured")

	// ErrProviderUnavailable is returned while the endpoint's circuit breaker is open
	ErrProviderUnavailable = errors.New("subgraph provider unavailable")

	// errCallerDone marks a query abandoned because the caller's context ended
	errCallerDone = errors.New("subgraph query abandoned")
)

const (
	governanceVotesQuery = `query($wallet:String!){ votes(where:{voter:$wallet}){id} }`
	airdropClaimsQuery   = `query($wallet:String!){ airdropClaims(where:{claimer:$wallet}){id} }`

	maxResponseBytes = 4 << 20
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []graphQLError             `json:"errors"`
}

// Client queries subgraphs for per-wallet entity counts
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breakers   map[string]*gobreaker.CircuitBreaker
	config     *config.TheGraphConfig
	logger     *logger.Logger
}

// NewClient creates a subgraph client with a shared rate limit and one breaker per endpoint
func NewClient(cfg *config.TheGraphConfig, logger *logger.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(limit, max(cfg.Burst, 1)),
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
		config:     cfg,
		logger:     logger.WithComponent("thegraph-client"),
	}

	for name, endpoint := range map[string]string{
		"thegraph-governance": cfg.GovernanceEndpoint,
		"thegraph-airdrops":   cfg.AirdropsEndpoint,
	} {
		if endpoint == "" {
			continue
		}
		c.breakers[endpoint] = c.newBreaker(name)
	}

	return c
}

func (c *Client) newBreaker(name string) *gobreaker.CircuitBreaker {
	failures := c.config.BreakerFailures
	if failures == 0 {
		failures = 3
	}

	st := gobreaker.Settings{
		Name:     name,
		Interval: c.config.BreakerInterval,
		Timeout:  c.config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Caller cancellations and deadlines say nothing about the endpoint
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Subgraph circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return gobreaker.NewCircuitBreaker(st)
}

// HasGovernanceEndpoint reports whether governance votes can be queried
func (c *Client) HasGovernanceEndpoint() bool {
	return c.config.GovernanceEndpoint != ""
}

// HasAirdropsEndpoint reports whether airdrop claims can be queried
func (c *Client) HasAirdropsEndpoint() bool {
	return c.config.AirdropsEndpoint != ""
}

// GovernanceVotes counts votes cast by wallet
func (c *Client) GovernanceVotes(ctx context.Context, wallet string) (int, error) {
	return c.countEntities(ctx, c.config.GovernanceEndpoint, governanceVotesQuery, "votes", wallet)
}

// AirdropClaims counts airdrop claims made by wallet
func (c *Client) AirdropClaims(ctx context.Context, wallet string) (int, error) {
	return c.countEntities(ctx, c.config.AirdropsEndpoint, airdropClaimsQuery, "airdropClaims", wallet)
}

// countEntities runs query and returns the length of the list under field.
// A missing or null list counts as zero.
func (c *Client) countEntities(ctx context.Context, endpoint, query, field, wallet string) (int, error) {
	if endpoint == "" {
		return 0, ErrEndpointNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter wait: %w", err)
	}

	req := graphQLRequest{
		Query:     query,
		Variables: map[string]any{"wallet": strings.ToLower(wallet)},
	}

	breaker, ok := c.breakers[endpoint]
	if !ok {
		return 0, ErrEndpointNotConfigured
	}

	result, err := breaker.Execute(func() (interface{}, error) {
		resp, err := c.post(ctx, endpoint, req)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerDone, ctx.Err())
		}
		return resp, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return 0, err
	}

	resp := result.(*graphQLResponse)
	raw, ok := resp.Data[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, fmt.Errorf("failed to decode %s list: %w", field, err)
	}

	c.logger.Debug("Subgraph count resolved",
		zap.String("field", field),
		zap.String("wallet", req.Variables["wallet"].(string)),
		zap.Int("count", len(items)))

	return len(items), nil
}

func (c *Client) post(ctx context.Context, endpoint string, body graphQLRequest) (*graphQLResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("subgraph request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read subgraph response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("subgraph returned status %d", resp.StatusCode)
	}

	var out graphQLResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode subgraph response: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("subgraph query error: %s", out.Errors[0].Message)
	}

	return &out, nil
}
