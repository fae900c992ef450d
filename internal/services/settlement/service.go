// Package settlement implements Stage 3 of the reconciliation pipeline:
// marking receivable installments as paid from validated receipt rows.
package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

// HealthOK is the automation-rate floor, in percent, below which an apply
// run is flagged critical. The boundary is inclusive.
const HealthOK = 90.0

// Health grades an apply run by its automation rate
type Health string

const (
	HealthStatusOK       Health = "OK"
	HealthStatusCritical Health = "CRITICAL"
)

// Service implements settlement linking
type Service struct {
	db           ports.DBPort
	runs         ports.RunRepository
	receipts     ports.ReceiptRepository
	matches      ports.MatchRepository
	settlements  ports.SettlementRepository
	installments ports.InstallmentRepository
	locker       ports.ScopeLocker
	logger       ports.Logger
}

// NewService creates a new settlement service
func NewService(
	db ports.DBPort,
	runs ports.RunRepository,
	receipts ports.ReceiptRepository,
	matches ports.MatchRepository,
	settlements ports.SettlementRepository,
	installments ports.InstallmentRepository,
	locker ports.ScopeLocker,
	logger ports.Logger,
) *Service {
	return &Service{
		db:           db,
		runs:         runs,
		receipts:     receipts,
		matches:      matches,
		settlements:  settlements,
		installments: installments,
		locker:       locker,
		logger:       logger,
	}
}

// ReceiptOutcome describes what happened, or would happen, to one receipt row
type ReceiptOutcome string

const (
	OutcomeSettled          ReceiptOutcome = "settled"
	OutcomeAlreadyProcessed ReceiptOutcome = "already_processed"
	OutcomeOrphan           ReceiptOutcome = "orphan"
)

// ReceiptResolution is the per-row trace of an apply or preview
type ReceiptResolution struct {
	NSU           string          `json:"nsu"`
	Value         decimal.Decimal `json:"value"`
	Outcome       ReceiptOutcome  `json:"outcome"`
	SaleID        *uuid.UUID      `json:"sale_id,omitempty"`
	InstallmentID *uuid.UUID      `json:"installment_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

// Result is the Stage-3 report. Amarrados counts installments settled this
// run, AlreadyProcessed counts receipts whose installment was settled by an
// earlier run for the same scope, and Orfaos counts receipts that resolve
// to no open installment at all.
type Result struct {
	RunID            uuid.UUID           `json:"run_id,omitempty"`
	AcquirerID       string              `json:"acquirer_id"`
	Date             time.Time           `json:"date"`
	Total            int                 `json:"total"`
	Amarrados        int                 `json:"amarrados"`
	AlreadyProcessed int                 `json:"already_processed"`
	Orfaos           int                 `json:"orfaos"`
	AutomationRate   float64             `json:"taxa_amarracao_automatica"`
	Health           Health              `json:"alerta_saude"`
	Resolutions      []ReceiptResolution `json:"resolutions"`
	TotalSettled     decimal.Decimal     `json:"valor_total_liquidado"`
}

// Orphans returns the rows that need manual resolution
func (r *Result) Orphans() []ReceiptResolution {
	out := make([]ReceiptResolution, 0, r.Orfaos)
	for _, res := range r.Resolutions {
		if res.Outcome == OutcomeOrphan {
			out = append(out, res)
		}
	}
	return out
}

// Preview resolves the validated receipts for the scope without writing
// anything, so the operator can inspect the would-be outcome first.
func (s *Service) Preview(ctx context.Context, acquirerID string, date time.Time) (*Result, error) {
	run, details, err := s.loadValidatedReceipts(ctx, nil, acquirerID, date)
	if err != nil {
		return nil, err
	}

	result := newResult(acquirerID, date, len(details))
	for _, d := range details {
		res, err := s.resolve(ctx, nil, d, acquirerID, date)
		if err != nil {
			return nil, err
		}
		result.tally(res)
	}
	result.finish()

	s.logger.Info("settlement preview",
		ports.String("acquirer_id", acquirerID),
		ports.String("cascade_run_id", run.ID.String()),
		ports.Int("amarrados", result.Amarrados),
		ports.Int("orfaos", result.Orfaos))

	return result, nil
}

// Apply settles the validated receipts for the scope inside one transaction.
// A second apply for the same scope is a no-op report: every receipt resolves
// to already_processed. Concurrent applies for the same scope are rejected.
func (s *Service) Apply(ctx context.Context, acquirerID string, date time.Time, initiatedBy string) (*Result, error) {
	var result *Result
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := s.locker.TryLockScope(ctx, tx, acquirerID, date)
		if err != nil {
			return fmt.Errorf("acquire scope lock: %w", err)
		}
		if !locked {
			return domain.ErrScopeLocked.
				WithDetail("acquirer_id", acquirerID).
				WithDetail("date", date.Format("2006-01-02"))
		}

		cascadeRun, details, err := s.loadValidatedReceipts(ctx, tx, acquirerID, date)
		if err != nil {
			return err
		}

		version, err := s.runs.NextVersion(ctx, tx, acquirerID, models.StageSettlement, date)
		if err != nil {
			return err
		}
		runID := uuid.New()

		result = newResult(acquirerID, date, len(details))
		result.RunID = runID
		now := time.Now()
		for _, d := range details {
			res, err := s.resolve(ctx, tx, d, acquirerID, date)
			if err != nil {
				return err
			}
			if res.Outcome == OutcomeSettled {
				if err := s.settle(ctx, tx, runID, res, d, acquirerID, date, now); err != nil {
					return err
				}
			}
			result.tally(res)
		}
		result.finish()

		run, err := buildRun(runID, cascadeRun, version, initiatedBy, result, now)
		if err != nil {
			return err
		}
		return s.runs.Append(ctx, tx, run)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("settlement applied",
		ports.String("acquirer_id", acquirerID),
		ports.String("run_id", result.RunID.String()),
		ports.Int("amarrados", result.Amarrados),
		ports.Int("already_processed", result.AlreadyProcessed),
		ports.Int("orfaos", result.Orfaos),
		ports.Float64("taxa", result.AutomationRate),
		ports.String("health", string(result.Health)))

	return result, nil
}

// loadValidatedReceipts finds the latest cascade run for the scope and
// requires its verdict to advance
func (s *Service) loadValidatedReceipts(ctx context.Context, db ports.DBTX, acquirerID string, date time.Time) (*models.ReconciliationRun, []*models.ReceiptDetail, error) {
	run, err := s.runs.LatestForScope(ctx, db, acquirerID, models.StageCascade, date)
	if err != nil {
		return nil, nil, fmt.Errorf("load cascade run: %w", err)
	}
	if run == nil || !run.Verdict.Advances() {
		derr := domain.ErrNoValidatedRun.
			WithDetail("acquirer_id", acquirerID).
			WithDetail("date", date.Format("2006-01-02"))
		if run != nil {
			derr = derr.WithDetail("last_verdict", string(run.Verdict))
		}
		return nil, nil, derr
	}
	details, err := s.receipts.ListByRun(ctx, db, run.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load receipts: %w", err)
	}
	return run, details, nil
}

// resolve walks one receipt back to an installment: confirmed match by NSU,
// then the oldest open installment of the matched sale. When every
// installment of the sale is closed, a prior settlement for this scope
// means the receipt was already processed; otherwise it is an orphan.
func (s *Service) resolve(ctx context.Context, db ports.DBTX, d *models.ReceiptDetail, acquirerID string, date time.Time) (ReceiptResolution, error) {
	res := ReceiptResolution{NSU: d.NSU, Value: d.Value}

	match, err := s.matches.GetConfirmedByNSU(ctx, db, acquirerID, d.NSU)
	if err != nil {
		return res, fmt.Errorf("resolve nsu %s: %w", d.NSU, err)
	}
	if match == nil || match.SaleID == nil {
		res.Outcome = OutcomeOrphan
		res.Reason = "no confirmed match for reference"
		return res, nil
	}
	res.SaleID = match.SaleID

	inst, err := s.installments.FindOldestOpen(ctx, db, *match.SaleID)
	if err != nil {
		return res, fmt.Errorf("find open installment: %w", err)
	}
	if inst == nil {
		settled, err := s.settlements.ExistsForSale(ctx, db, *match.SaleID, acquirerID, date)
		if err != nil {
			return res, err
		}
		if settled {
			res.Outcome = OutcomeAlreadyProcessed
		} else {
			res.Outcome = OutcomeOrphan
			res.Reason = "sale has no open installments"
		}
		return res, nil
	}
	res.InstallmentID = &inst.ID

	exists, err := s.settlements.Exists(ctx, db, inst.ID, acquirerID, date)
	if err != nil {
		return res, err
	}
	if exists {
		res.Outcome = OutcomeAlreadyProcessed
		return res, nil
	}
	res.Outcome = OutcomeSettled
	return res, nil
}

func (s *Service) settle(ctx context.Context, tx ports.DBTX, runID uuid.UUID, res ReceiptResolution, d *models.ReceiptDetail, acquirerID string, date, now time.Time) error {
	if err := s.installments.MarkSettled(ctx, tx, *res.InstallmentID, now); err != nil {
		return fmt.Errorf("mark installment settled: %w", err)
	}
	return s.settlements.Create(ctx, tx, &models.SettlementResult{
		ID:             uuid.New(),
		RunID:          runID,
		InstallmentID:  *res.InstallmentID,
		AcquirerID:     acquirerID,
		SettlementDate: date,
		Value:          d.Value,
		NSU:            d.NSU,
		CreatedAt:      now,
	})
}

func newResult(acquirerID string, date time.Time, total int) *Result {
	return &Result{
		AcquirerID:   acquirerID,
		Date:         date,
		Total:        total,
		TotalSettled: decimal.Zero,
		Resolutions:  make([]ReceiptResolution, 0, total),
	}
}

func (r *Result) tally(res ReceiptResolution) {
	r.Resolutions = append(r.Resolutions, res)
	switch res.Outcome {
	case OutcomeSettled:
		r.Amarrados++
		r.TotalSettled = r.TotalSettled.Add(res.Value)
	case OutcomeAlreadyProcessed:
		r.AlreadyProcessed++
	case OutcomeOrphan:
		r.Orfaos++
	}
}

// finish computes the automation rate. Already-processed rows are excluded
// from both counts, so a re-run of a fully settled scope stays healthy.
func (r *Result) finish() {
	attempted := r.Amarrados + r.Orfaos
	if attempted == 0 {
		r.AutomationRate = 100.0
	} else {
		r.AutomationRate = float64(r.Amarrados) / float64(attempted) * 100.0
	}
	if r.AutomationRate >= HealthOK {
		r.Health = HealthStatusOK
	} else {
		r.Health = HealthStatusCritical
	}
}

type runSummary struct {
	CascadeRunID     uuid.UUID `json:"cascade_run_id"`
	Total            int       `json:"total"`
	Amarrados        int       `json:"amarrados"`
	AlreadyProcessed int       `json:"already_processed"`
	Orfaos           int       `json:"orfaos"`
	AutomationRate   float64   `json:"taxa_amarracao_automatica"`
	Health           Health    `json:"health"`
	TotalSettled     string    `json:"total_settled"`
}

func buildRun(runID uuid.UUID, cascadeRun *models.ReconciliationRun, version int32, initiatedBy string, result *Result, now time.Time) (*models.ReconciliationRun, error) {
	summary, err := json.Marshal(runSummary{
		CascadeRunID:     cascadeRun.ID,
		Total:            result.Total,
		Amarrados:        result.Amarrados,
		AlreadyProcessed: result.AlreadyProcessed,
		Orfaos:           result.Orfaos,
		AutomationRate:   result.AutomationRate,
		Health:           result.Health,
		TotalSettled:     result.TotalSettled.StringFixed(2),
	})
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return &models.ReconciliationRun{
		ID:            runID,
		Stage:         models.StageSettlement,
		AcquirerID:    result.AcquirerID,
		ReferenceDate: result.Date,
		InputChecksum: cascadeRun.InputChecksum,
		Verdict:       models.VerdictApplied,
		Summary:       summary,
		Version:       version,
		InitiatedBy:   initiatedBy,
		CreatedAt:     now,
	}, nil
}
