// Package cascade implements Stage 2 of the reconciliation pipeline:
// cross-validating the three independently sourced receipt files by
// transitive sum comparison.
package cascade

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/divergence"
)

// Config holds the Stage-2 product thresholds
type Config struct {
	// MismatchConfidence is the inference confidence above which a
	// differing acquirer blocks validation (default 0.70)
	MismatchConfidence float64
}

// DefaultConfig returns the product-chosen defaults
func DefaultConfig() Config {
	return Config{MismatchConfidence: 0.70}
}

// Service implements cascade validation
type Service struct {
	db         ports.DBPort
	runs       ports.RunRepository
	receipts   ports.ReceiptRepository
	classifier *divergence.Classifier
	cfg        Config
	logger     ports.Logger
}

// NewService creates a new cascade validation service
func NewService(
	db ports.DBPort,
	runs ports.RunRepository,
	receipts ports.ReceiptRepository,
	classifier *divergence.Classifier,
	cfg Config,
	logger ports.Logger,
) *Service {
	return &Service{
		db:         db,
		runs:       runs,
		receipts:   receipts,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// ValidateRequest carries one cascade validation invocation. The acquirer
// and date are explicit parameters, never ambient state; the mismatch
// override is an explicit caller decision.
type ValidateRequest struct {
	AcquirerID             string
	Date                   time.Time
	Details                []*models.ReceiptDetail
	Batches                []*models.BatchReceipt
	Credits                []*models.BankCredit
	IgnoreAcquirerMismatch bool
	InitiatedBy            string
}

// Sums holds the three cascade totals
type Sums struct {
	Detail decimal.Decimal `json:"sum_detail"`
	Batch  decimal.Decimal `json:"sum_batch"`
	Bank   decimal.Decimal `json:"sum_bank"`
}

// ValidateResult is the Stage-2 outcome. Divergent sums and acquirer
// mismatch are verdicts, not errors: the caller decides how to proceed.
type ValidateResult struct {
	RunID              uuid.UUID           `json:"run_id"`
	Verdict            models.Verdict      `json:"verdict"`
	Sums               Sums                `json:"sums"`
	Divergences        []domain.Divergence `json:"divergences"`
	InferredAcquirer   string              `json:"inferred_acquirer"`
	InferredConfidence float64             `json:"inferred_confidence"`
	InferredDate       *time.Time          `json:"inferred_date"`
	Reprocessing       bool                `json:"reprocessing"`
}

// Validate runs the cascade: Σdetail vs Σbatch, then Σbatch vs Σbank.
// Identical input for an already-validated scope returns the prior verdict
// flagged as reprocessing instead of duplicating the audit trail.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*ValidateResult, error) {
	if req.AcquirerID == "" {
		return nil, domain.ErrValidationMissingField.WithDetail("field", "acquirer_id")
	}
	if len(req.Details) == 0 {
		return nil, domain.ErrCascadeEmptyInput
	}

	checksum := inputChecksum(req)

	prior, err := s.runs.GetByChecksum(ctx, nil, req.AcquirerID, models.StageCascade, checksum)
	if err != nil {
		return nil, fmt.Errorf("look up prior run: %w", err)
	}
	if prior != nil && prior.Verdict != models.VerdictAcquirerMismatch {
		result, err := resultFromRun(prior)
		if err != nil {
			return nil, fmt.Errorf("decode prior run: %w", err)
		}
		result.Reprocessing = true
		s.logger.Info("cascade reprocessing detected, returning prior verdict",
			ports.String("acquirer_id", req.AcquirerID),
			ports.String("run_id", prior.ID.String()),
			ports.String("verdict", string(prior.Verdict)))
		return result, nil
	}

	sums := Sums{
		Detail: sumDetails(req.Details),
		Batch:  sumBatches(req.Batches),
		Bank:   sumCredits(req.Credits),
	}

	inferredAcquirer, confidence := inferAcquirer(req.Details)
	inferredDate := inferDate(req.Details)

	result := &ValidateResult{
		Sums:               sums,
		InferredAcquirer:   inferredAcquirer,
		InferredConfidence: confidence,
		InferredDate:       inferredDate,
	}

	if s.isAcquirerMismatch(req, inferredAcquirer, confidence) {
		result.Verdict = models.VerdictAcquirerMismatch
		runID, err := s.persistRun(ctx, req, checksum, result, nil)
		if err != nil {
			return nil, err
		}
		result.RunID = runID
		return result, nil
	}

	var divs []domain.Divergence
	if d := s.classifier.CompareValues(domain.DivergenceDetailBatch, sums.Detail, sums.Batch); d != nil {
		divs = append(divs, *d)
	}
	if d := s.classifier.CompareValues(domain.DivergenceBatchBank, sums.Batch, sums.Bank); d != nil {
		divs = append(divs, *d)
	}
	result.Divergences = divs

	if domain.HasAttention(divs) {
		result.Verdict = models.VerdictDivergent
	} else {
		result.Verdict = models.VerdictValidated
	}

	// detail rows are persisted for divergent runs too: accepting the
	// divergence later re-attaches them without re-uploading the files
	runID, err := s.persistRun(ctx, req, checksum, result, req.Details)
	if err != nil {
		return nil, err
	}
	result.RunID = runID

	s.logger.Info("cascade validation completed",
		ports.String("acquirer_id", req.AcquirerID),
		ports.String("verdict", string(result.Verdict)),
		ports.Int("divergences", len(divs)))

	return result, nil
}

// AcceptDivergence is the explicit second call of the two-step protocol:
// the caller reviewed a divergent verdict and decided to advance anyway.
// A superseding run with verdict divergence_accepted is appended.
func (s *Service) AcceptDivergence(ctx context.Context, runID uuid.UUID, acceptedBy string) (*ValidateResult, error) {
	prior, err := s.runs.GetByID(ctx, nil, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	if prior == nil {
		return nil, domain.ErrRunNotFound.WithDetail("run_id", runID.String())
	}
	if prior.Verdict != models.VerdictDivergent {
		return nil, domain.ErrValidationFailed.
			WithDetail("run_id", runID.String()).
			WithDetail("verdict", string(prior.Verdict)).
			WithDetail("reason", "only divergent runs can be accepted")
	}

	result, err := resultFromRun(prior)
	if err != nil {
		return nil, fmt.Errorf("decode prior run: %w", err)
	}
	result.Verdict = models.VerdictDivergenceAccepted

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		version, err := s.runs.NextVersion(ctx, tx, prior.AcquirerID, models.StageCascade, prior.ReferenceDate)
		if err != nil {
			return err
		}
		run, err := buildRun(prior.AcquirerID, prior.ReferenceDate, prior.InputChecksum, acceptedBy, version, result)
		if err != nil {
			return err
		}
		run.SupersedesID = &prior.ID
		if err := s.runs.Append(ctx, tx, run); err != nil {
			return err
		}
		result.RunID = run.ID

		// the accepted run's receipts now become settleable
		details, err := s.receipts.ListByRun(ctx, tx, prior.ID)
		if err != nil {
			return err
		}
		if len(details) == 0 {
			return nil
		}
		// fresh row identities: the stored rows keep their primary keys,
		// re-inserting them as-is would collide
		reattached := make([]*models.ReceiptDetail, len(details))
		for i, d := range details {
			row := *d
			row.ID = uuid.New()
			row.RunID = run.ID
			reattached[i] = &row
		}
		return s.receipts.CreateDetails(ctx, tx, run.ID, reattached)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cascade divergence accepted",
		ports.String("acquirer_id", prior.AcquirerID),
		ports.String("run_id", result.RunID.String()),
		ports.String("accepted_by", acceptedBy))

	return result, nil
}

func (s *Service) isAcquirerMismatch(req ValidateRequest, inferred string, confidence float64) bool {
	if req.IgnoreAcquirerMismatch || inferred == "" {
		return false
	}
	return inferred != normalizeAcquirer(req.AcquirerID) && confidence >= s.cfg.MismatchConfidence
}

func (s *Service) persistRun(ctx context.Context, req ValidateRequest, checksum string, result *ValidateResult, details []*models.ReceiptDetail) (uuid.UUID, error) {
	var runID uuid.UUID
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		version, err := s.runs.NextVersion(ctx, tx, req.AcquirerID, models.StageCascade, req.Date)
		if err != nil {
			return err
		}
		run, err := buildRun(req.AcquirerID, req.Date, checksum, req.InitiatedBy, version, result)
		if err != nil {
			return err
		}
		if err := s.runs.Append(ctx, tx, run); err != nil {
			return err
		}
		runID = run.ID
		if len(details) == 0 {
			return nil
		}
		return s.receipts.CreateDetails(ctx, tx, run.ID, details)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("persist cascade run: %w", err)
	}
	return runID, nil
}

// runSummary is the JSON payload stored on the audit run so a prior
// verdict can be replayed without the source files
type runSummary struct {
	Sums               Sums       `json:"sums"`
	InferredAcquirer   string     `json:"inferred_acquirer"`
	InferredConfidence float64    `json:"inferred_confidence"`
	InferredDate       *time.Time `json:"inferred_date"`
}

func buildRun(acquirerID string, date time.Time, checksum, initiatedBy string, version int32, result *ValidateResult) (*models.ReconciliationRun, error) {
	divs, err := json.Marshal(result.Divergences)
	if err != nil {
		return nil, fmt.Errorf("encode divergences: %w", err)
	}
	summary, err := json.Marshal(runSummary{
		Sums:               result.Sums,
		InferredAcquirer:   result.InferredAcquirer,
		InferredConfidence: result.InferredConfidence,
		InferredDate:       result.InferredDate,
	})
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return &models.ReconciliationRun{
		ID:            uuid.New(),
		Stage:         models.StageCascade,
		AcquirerID:    acquirerID,
		ReferenceDate: date,
		InputChecksum: checksum,
		Verdict:       result.Verdict,
		Divergences:   divs,
		Summary:       summary,
		Version:       version,
		InitiatedBy:   initiatedBy,
		CreatedAt:     time.Now(),
	}, nil
}

func resultFromRun(run *models.ReconciliationRun) (*ValidateResult, error) {
	var summary runSummary
	if len(run.Summary) > 0 {
		if err := json.Unmarshal(run.Summary, &summary); err != nil {
			return nil, err
		}
	}
	var divs []domain.Divergence
	if len(run.Divergences) > 0 {
		if err := json.Unmarshal(run.Divergences, &divs); err != nil {
			return nil, err
		}
	}
	return &ValidateResult{
		RunID:              run.ID,
		Verdict:            run.Verdict,
		Sums:               summary.Sums,
		Divergences:        divs,
		InferredAcquirer:   summary.InferredAcquirer,
		InferredConfidence: summary.InferredConfidence,
		InferredDate:       summary.InferredDate,
	}, nil
}

func sumDetails(details []*models.ReceiptDetail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Value)
	}
	return total
}

func sumBatches(batches []*models.BatchReceipt) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(b.Value)
	}
	return total
}

// sumCredits only counts positive inbound transfers; the importer already
// filters debits but a defensively negative row must not poison the sum
func sumCredits(credits []*models.BankCredit) decimal.Decimal {
	total := decimal.Zero
	for _, c := range credits {
		if c.Amount.IsPositive() {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// inferAcquirer runs a majority vote over the detail rows and returns the
// winner plus its share of the vote
func inferAcquirer(details []*models.ReceiptDetail) (string, float64) {
	if len(details) == 0 {
		return "", 0
	}
	votes := make(map[string]int)
	for _, d := range details {
		name := normalizeAcquirer(d.AcquirerName)
		if name != "" {
			votes[name]++
		}
	}
	winner, count := "", 0
	for name, n := range votes {
		if n > count || (n == count && name < winner) {
			winner, count = name, n
		}
	}
	if winner == "" {
		return "", 0
	}
	return winner, float64(count) / float64(len(details))
}

// inferDate picks the most frequent normalized date among the detail rows
func inferDate(details []*models.ReceiptDetail) *time.Time {
	votes := make(map[string]int)
	for _, d := range details {
		if !d.Date.IsZero() {
			votes[d.Date.Format("2006-01-02")]++
		}
	}
	winner, count := "", 0
	for day, n := range votes {
		if n > count || (n == count && day < winner) {
			winner, count = day, n
		}
	}
	if winner == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", winner)
	if err != nil {
		return nil
	}
	return &t
}

func normalizeAcquirer(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		}
	}
	return string(out)
}

// inputChecksum hashes the canonical representation of the three sources.
// Row order must not matter: the same files re-exported in a different
// order are still the same input.
func inputChecksum(req ValidateRequest) string {
	rows := make([]string, 0, len(req.Details)+len(req.Batches)+len(req.Credits))
	for _, d := range req.Details {
		rows = append(rows, fmt.Sprintf("d|%s|%s|%s", d.NSU, d.Date.Format("2006-01-02"), d.Value.StringFixed(2)))
	}
	for _, b := range req.Batches {
		rows = append(rows, fmt.Sprintf("b|%s|%s", b.PaymentID, b.Value.StringFixed(2)))
	}
	for _, c := range req.Credits {
		rows = append(rows, fmt.Sprintf("c|%s|%s", c.FITID, c.Amount.StringFixed(2)))
	}
	sort.Strings(rows)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s\n", req.AcquirerID, req.Date.Format("2006-01-02"))
	for _, row := range rows {
		h.Write([]byte(row))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
