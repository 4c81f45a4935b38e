package service

import (
	"context"

	"proofdrop-scorer/internal/domain/entity"
)

// ReputationService defines the interface for scoring operations
type ReputationService interface {
	// Score resolves supplemental counts for the snapshot's address and scores it
	Score(ctx context.Context, snapshot entity.Snapshot) (*entity.Report, error)

	// BadgeTiers returns the badge ladder, highest tier first
	BadgeTiers() []entity.BadgeTier
}
