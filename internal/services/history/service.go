// Package history exposes read-only queries over the append-only
// reconciliation audit log.
package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service answers audit queries over past reconciliation runs
type Service struct {
	runs        ports.RunRepository
	settlements ports.SettlementRepository
	logger      ports.Logger
}

// NewService creates a new history service
func NewService(runs ports.RunRepository, settlements ports.SettlementRepository, logger ports.Logger) *Service {
	return &Service{runs: runs, settlements: settlements, logger: logger}
}

// RunDetail is a run plus the settlement results it produced, if any
type RunDetail struct {
	Run         *models.ReconciliationRun  `json:"run"`
	Settlements []*models.SettlementResult `json:"settlements,omitempty"`
}

// ListRuns pages through runs for an acquirer, newest first. Stage filters
// when non-nil.
func (s *Service) ListRuns(ctx context.Context, acquirerID string, stage *models.Stage, limit, offset int32) ([]*models.ReconciliationRun, error) {
	if acquirerID == "" {
		return nil, domain.ErrValidationMissingField.WithDetail("field", "acquirer_id")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	runs, err := s.runs.List(ctx, nil, acquirerID, stage, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run with its settlement results
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*RunDetail, error) {
	run, err := s.runs.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	if run == nil {
		return nil, domain.ErrRunNotFound.WithDetail("run_id", id.String())
	}
	detail := &RunDetail{Run: run}
	if run.Stage == models.StageSettlement {
		detail.Settlements, err = s.settlements.ListByRun(ctx, nil, run.ID)
		if err != nil {
			return nil, fmt.Errorf("load settlements: %w", err)
		}
	}
	return detail, nil
}
