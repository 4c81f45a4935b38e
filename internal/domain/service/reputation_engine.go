package service

import (
	"proofdrop-scorer/internal/domain/entity"
)

// ReputationEngine runs the pure pipeline: derive, merge supplements, score, classify.
// Every stage is stateless, so one engine serves concurrent requests.
type ReputationEngine struct {
	deriver    *MetricsDeriver
	calculator *ScoreCalculator
	classifier *BadgeClassifier
}

// NewReputationEngine assembles the pipeline stages
func NewReputationEngine(deriver *MetricsDeriver, calculator *ScoreCalculator, classifier *BadgeClassifier) *ReputationEngine {
	return &ReputationEngine{
		deriver:    deriver,
		calculator: calculator,
		classifier: classifier,
	}
}

// Evaluate produces the report for a snapshot and already resolved supplemental counts
func (e *ReputationEngine) Evaluate(snapshot entity.Snapshot, supplements []SupplementalCount) *entity.Report {
	address := normalizeAddress(snapshot.Address)

	metrics := e.deriver.Derive(address, snapshot.Balances, snapshot.Transactions)
	metrics = MergeSupplements(metrics, supplements)

	result := e.calculator.Calculate(metrics)

	return &entity.Report{
		Address: address,
		Metrics: metrics,
		Scoring: result,
		Badge:   e.classifier.Classify(result.Score),
		Sources: SourceCounts(supplements),
	}
}

// BadgeTiers exposes the badge ladder for display
func (e *ReputationEngine) BadgeTiers() []entity.BadgeTier {
	return e.classifier.Tiers()
}
