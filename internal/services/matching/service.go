// Package matching implements Stage 1 of the reconciliation pipeline:
// joining PDV payment lines to acquirer transactions by NSU and classifying
// the result.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/divergence"
)

// Service implements match preview and confirmation
type Service struct {
	db         ports.DBPort
	lines      ports.PaymentLineRepository
	acquirerTx ports.AcquirerTransactionRepository
	matches    ports.MatchRepository
	classifier *divergence.Classifier
	logger     ports.Logger
}

// NewService creates a new matching service
func NewService(
	db ports.DBPort,
	lines ports.PaymentLineRepository,
	acquirerTx ports.AcquirerTransactionRepository,
	matches ports.MatchRepository,
	classifier *divergence.Classifier,
	logger ports.Logger,
) *Service {
	return &Service{
		db:         db,
		lines:      lines,
		acquirerTx: acquirerTx,
		matches:    matches,
		classifier: classifier,
		logger:     logger,
	}
}

// ConfirmResult reports the outcome of a confirmation batch
type ConfirmResult struct {
	Confirmed        int `json:"confirmed"`
	AlreadyConfirmed int `json:"already_confirmed"`
}

// ImportBatch stores a freshly parsed acquirer export, superseding the
// previous batch for the acquirer
func (s *Service) ImportBatch(ctx context.Context, acquirerID string, batchID uuid.UUID, txns []*models.AcquirerTransaction) error {
	if acquirerID == "" {
		return domain.ErrValidationMissingField.WithDetail("field", "acquirer_id")
	}
	if len(txns) == 0 {
		return domain.ErrImportEmptyFile
	}
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.acquirerTx.ReplaceImportBatch(ctx, tx, acquirerID, batchID, txns)
	})
	if err != nil {
		return fmt.Errorf("replace import batch: %w", err)
	}
	s.logger.Info("acquirer batch imported",
		ports.String("acquirer_id", acquirerID),
		ports.String("batch_id", batchID.String()),
		ports.Int("transactions", len(txns)))
	return nil
}

// Preview classifies the unmatched payment lines of an acquirer against
// the most recent import. The preview set is persisted (replacing any
// previous unconfirmed set for the scope) so that Confirm can address
// matches by ID.
func (s *Service) Preview(ctx context.Context, acquirerID string, date *time.Time) ([]domain.Match, error) {
	if acquirerID == "" {
		return nil, domain.ErrValidationMissingField.WithDetail("field", "acquirer_id")
	}

	lines, err := s.lines.ListCardLines(ctx, nil, date)
	if err != nil {
		return nil, fmt.Errorf("list payment lines: %w", err)
	}
	txns, err := s.acquirerTx.ListLatestBatch(ctx, nil, acquirerID, date)
	if err != nil {
		return nil, fmt.Errorf("list acquirer transactions: %w", err)
	}
	confirmed, err := s.matches.ListConfirmed(ctx, nil, acquirerID)
	if err != nil {
		return nil, fmt.Errorf("list confirmed matches: %w", err)
	}

	matches := s.classify(acquirerID, lines, txns, confirmed)
	domain.SortMatches(matches)

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.matches.ReplaceUnconfirmed(ctx, tx, acquirerID, date, matches)
	})
	if err != nil {
		return nil, fmt.Errorf("persist preview: %w", err)
	}

	s.logger.Info("match preview generated",
		ports.String("acquirer_id", acquirerID),
		ports.Int("payment_lines", len(lines)),
		ports.Int("acquirer_transactions", len(txns)),
		ports.Int("matches", len(matches)))

	return matches, nil
}

// classify runs the NSU join and secondary attribute comparison. Pairs that
// were already confirmed stay out of the preview entirely: the line does not
// re-match and its transaction is not surfaced as an orphan.
func (s *Service) classify(acquirerID string, lines []*models.PaymentLine, txns []*models.AcquirerTransaction, confirmed []*domain.Match) []domain.Match {
	confirmedLines := make(map[uuid.UUID]bool, len(confirmed))
	referenced := make(map[string]bool, len(lines))
	for _, m := range confirmed {
		if m.PaymentLineID != nil {
			confirmedLines[*m.PaymentLineID] = true
		}
		if m.NSU != nil {
			referenced[*m.NSU] = true
		}
	}

	byNSU := make(map[string]*models.AcquirerTransaction, len(txns))
	for _, txn := range txns {
		byNSU[txn.NSU] = txn
	}

	matches := make([]domain.Match, 0, len(lines)+len(txns))
	now := time.Now()

	for _, line := range lines {
		if confirmedLines[line.ID] {
			continue
		}
		m := domain.Match{
			ID:            uuid.New(),
			AcquirerID:    acquirerID,
			PaymentLineID: ptrUUID(line.ID),
			SaleID:        ptrUUID(line.SaleID),
			Value:         line.Value,
			CreatedAt:     now,
		}

		if !line.HasNSU() {
			m.Status = domain.MatchMissingReference
			matches = append(matches, m)
			continue
		}
		m.NSU = line.NSU

		txn, found := byNSU[*line.NSU]
		if !found {
			m.Status = domain.MatchOrphanReceivable
			matches = append(matches, m)
			continue
		}
		referenced[txn.NSU] = true
		m.TransactionID = ptrUUID(txn.ID)

		m.Divergences = s.compareAttributes(line, txn)
		if len(m.Divergences) == 0 {
			m.Status = domain.MatchOK
		} else {
			m.Status = domain.MatchDivergent
		}
		matches = append(matches, m)
	}

	for _, txn := range txns {
		if referenced[txn.NSU] {
			continue
		}
		matches = append(matches, domain.Match{
			ID:            uuid.New(),
			AcquirerID:    acquirerID,
			TransactionID: ptrUUID(txn.ID),
			NSU:           ptrString(txn.NSU),
			Value:         txn.GrossValue,
			Status:        domain.MatchOrphanTransaction,
			CreatedAt:     now,
		})
	}

	return matches
}

func (s *Service) compareAttributes(line *models.PaymentLine, txn *models.AcquirerTransaction) []domain.Divergence {
	var divs []domain.Divergence
	if d := s.classifier.CompareText(domain.DivergenceBrand, line.Brand, txn.Brand); d != nil {
		divs = append(divs, *d)
	}
	if d := s.classifier.CompareCounts(domain.DivergenceInstallments, line.Installments, txn.Installments); d != nil {
		divs = append(divs, *d)
	}
	if !s.classifier.ValueWithinTolerance(line.Value, txn.GrossValue) {
		if d := s.classifier.CompareValues(domain.DivergenceValue, line.Value, txn.GrossValue); d != nil {
			divs = append(divs, *d)
		}
	}
	return divs
}

// Confirm writes the NSU back onto each matched payment line and marks the
// matches confirmed, all-or-nothing per batch. A batch containing a
// divergent match alongside others is rejected: divergent matches must be
// confirmed one at a time. Re-confirming an already-confirmed match is a
// counted no-op.
func (s *Service) Confirm(ctx context.Context, matchIDs []uuid.UUID) (*ConfirmResult, error) {
	if len(matchIDs) == 0 {
		return nil, domain.ErrValidationMissingField.WithDetail("field", "match_ids")
	}

	result := &ConfirmResult{}

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		matches, err := s.matches.GetByIDs(ctx, tx, matchIDs)
		if err != nil {
			return fmt.Errorf("load matches: %w", err)
		}
		if len(matches) != len(matchIDs) {
			return domain.ErrMatchNotFound.
				WithDetail("requested", len(matchIDs)).
				WithDetail("found", len(matches))
		}

		for _, m := range matches {
			if !m.Confirmable() {
				return domain.ErrMatchNotConfirmable.WithDetail("match_id", m.ID.String()).
					WithDetail("status", string(m.Status))
			}
			if m.Status == domain.MatchDivergent && len(matches) > 1 {
				return domain.ErrMatchBulkDivergent.WithDetail("match_id", m.ID.String())
			}
		}

		now := time.Now()
		for _, m := range matches {
			if m.Confirmed {
				result.AlreadyConfirmed++
				continue
			}
			if err := s.lines.AttachNSU(ctx, tx, *m.PaymentLineID, *m.NSU, m.AcquirerID); err != nil {
				return fmt.Errorf("attach NSU to payment line %s: %w", m.PaymentLineID, err)
			}
			if err := s.matches.MarkConfirmed(ctx, tx, m.ID, now); err != nil {
				return fmt.Errorf("mark match %s confirmed: %w", m.ID, err)
			}
			result.Confirmed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("matches confirmed",
		ports.Int("confirmed", result.Confirmed),
		ports.Int("already_confirmed", result.AlreadyConfirmed))

	return result, nil
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }

func ptrString(s string) *string { return &s }
