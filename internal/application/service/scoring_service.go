package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"proofdrop-scorer/internal/domain/entity"
	"proofdrop-scorer/internal/domain/service"
	"proofdrop-scorer/internal/infrastructure/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScoreObserver receives scoring and provider outcomes, typically for metrics
type ScoreObserver interface {
	ObserveScore(badge entity.Badge, score int)
	ObserveProvider(provider string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveScore(entity.Badge, int) {}
func (nopObserver) ObserveProvider(string, time.Duration, error) {}

// ScoringApplicationService implements ReputationService interface
type ScoringApplicationService struct {
	engine          *service.ReputationEngine
	providers       []service.CountProvider
	providerTimeout time.Duration
	observer        ScoreObserver
	logger          *logger.Logger
}

// NewScoringApplicationService creates a new scoring application service.
// Providers are queried concurrently and merged in the given order.
func NewScoringApplicationService(
	engine *service.ReputationEngine,
	providers []service.CountProvider,
	providerTimeout time.Duration,
	observer ScoreObserver,
	logger *logger.Logger,
) *ScoringApplicationService {
	if observer == nil {
		observer = nopObserver{}
	}
	return &ScoringApplicationService{
		engine:          engine,
		providers:       providers,
		providerTimeout: providerTimeout,
		observer:        observer,
		logger:          logger.WithComponent("scoring-service"),
	}
}

// Score resolves supplemental counts and scores the snapshot
func (s *ScoringApplicationService) Score(ctx context.Context, snapshot entity.Snapshot) (*entity.Report, error) {
	address := strings.ToLower(strings.TrimSpace(snapshot.Address))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring %s: %w", address, err)
	}

	log := s.logger.WithAddress(address)
	log.Debug("Scoring wallet",
		zap.Int("balances", len(snapshot.Balances)),
		zap.Int("transactions", len(snapshot.Transactions)),
		zap.Int("providers", len(s.providers)))

	supplements := s.collectSupplements(ctx, address, log)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring %s: %w", address, err)
	}

	report := s.engine.Evaluate(snapshot, supplements)
	s.observer.ObserveScore(report.Badge, report.Scoring.Score)

	log.Info("Wallet scored",
		zap.Int("score", report.Scoring.Score),
		zap.String("badge", string(report.Badge)),
		zap.Float64("total_usd", report.Metrics.TotalUSDBalance),
		zap.Int("dex_swaps", report.Metrics.DexSwapCount),
		zap.Int("unique_contracts", report.Metrics.UniqueContractCount))

	return report, nil
}

// BadgeTiers returns the badge ladder
func (s *ScoringApplicationService) BadgeTiers() []entity.BadgeTier {
	return s.engine.BadgeTiers()
}

// collectSupplements queries every provider concurrently. Results keep provider order.
func (s *ScoringApplicationService) collectSupplements(ctx context.Context, address string, log *logger.Logger) []service.SupplementalCount {
	counts := make([]service.SupplementalCount, len(s.providers))

	var g errgroup.Group
	for i, provider := range s.providers {
		i, provider := i, provider
		g.Go(func() error {
			counts[i] = s.queryProvider(ctx, provider, address, log)
			return nil
		})
	}
	_ = g.Wait()

	return counts
}

// queryProvider runs one lookup; any failure degrades to an absent count
func (s *ScoringApplicationService) queryProvider(ctx context.Context, provider service.CountProvider, address string, log *logger.Logger) service.SupplementalCount {
	result := service.SupplementalCount{
		Source: provider.Name(),
		Metric: provider.Metric(),
	}

	if s.providerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.providerTimeout)
		defer cancel()
	}

	start := time.Now()
	count, err := provider.Count(ctx, address)
	s.observer.ObserveProvider(provider.Name(), time.Since(start), err)

	if err != nil {
		log.Warn("Supplemental provider failed, contributing zero",
			zap.String("provider", provider.Name()),
			zap.String("metric", string(provider.Metric())),
			zap.Error(err))
		return result
	}

	result.Count = count
	result.Present = true
	return result
}
