package matching

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/divergence"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/testutil/mocks"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/pkg/logging"
)

func newTestService(lines *mocks.MockPaymentLineRepository, txns *mocks.MockAcquirerTransactionRepository, matches *mocks.MockMatchRepository) *Service {
	return NewService(
		mocks.StubDBPort{},
		lines,
		txns,
		matches,
		divergence.NewClassifier(divergence.DefaultConfig()),
		logging.Nop(),
	)
}

func cardLine(nsu string, brand string, installments int32, value float64) *models.PaymentLine {
	line := &models.PaymentLine{
		ID:           uuid.New(),
		SaleID:       uuid.New(),
		Method:       models.PaymentMethodCard,
		Brand:        brand,
		Installments: installments,
		Value:        decimal.NewFromFloat(value),
		SaleDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	if nsu != "" {
		line.NSU = &nsu
	}
	return line
}

func acquirerTxn(nsu, brand string, installments int32, gross float64) *models.AcquirerTransaction {
	return &models.AcquirerTransaction{
		ID:           uuid.New(),
		AcquirerID:   "cielo",
		NSU:          nsu,
		Brand:        brand,
		Installments: installments,
		GrossValue:   decimal.NewFromFloat(gross),
		NetValue:     decimal.NewFromFloat(gross * 0.97),
		Status:       models.AcquirerTxnSettled,
	}
}

func TestPreview_IdenticalAttributesClassifyOK(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	txns := new(mocks.MockAcquirerTransactionRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, txns, matchRepo)

	lines.On("ListCardLines", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.PaymentLine{
			cardLine("123456", "visa", 3, 300.00),
			cardLine("123457", "master", 1, 89.90),
		}, nil)
	txns.On("ListLatestBatch", mock.Anything, mock.Anything, "cielo", mock.Anything).
		Return([]*models.AcquirerTransaction{
			acquirerTxn("123456", "VISA", 3, 300.00),
			acquirerTxn("123457", "Master", 1, 89.90),
		}, nil)
	matchRepo.On("ListConfirmed", mock.Anything, mock.Anything, "cielo").
		Return(nil, nil)
	matchRepo.On("ReplaceUnconfirmed", mock.Anything, mock.Anything, "cielo", mock.Anything, mock.Anything).
		Return(nil)

	matches, err := svc.Preview(context.Background(), "cielo", nil)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, domain.MatchOK, m.Status)
		assert.Empty(t, m.Divergences)
	}
}

func TestPreview_DivergentAttributes(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	txns := new(mocks.MockAcquirerTransactionRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, txns, matchRepo)

	lines.On("ListCardLines", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.PaymentLine{
			cardLine("555001", "visa", 3, 300.00),
		}, nil)
	txns.On("ListLatestBatch", mock.Anything, mock.Anything, "cielo", mock.Anything).
		Return([]*models.AcquirerTransaction{
			acquirerTxn("555001", "master", 6, 250.00),
		}, nil)
	matchRepo.On("ListConfirmed", mock.Anything, mock.Anything, "cielo").
		Return(nil, nil)
	matchRepo.On("ReplaceUnconfirmed", mock.Anything, mock.Anything, "cielo", mock.Anything, mock.Anything).
		Return(nil)

	matches, err := svc.Preview(context.Background(), "cielo", nil)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.MatchDivergent, matches[0].Status)

	types := make(map[domain.DivergenceType]bool)
	for _, d := range matches[0].Divergences {
		types[d.Type] = true
	}
	assert.True(t, types[domain.DivergenceBrand])
	assert.True(t, types[domain.DivergenceInstallments])
	assert.True(t, types[domain.DivergenceValue])
}

func TestPreview_ValueWithinEpsilonIsOK(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	txns := new(mocks.MockAcquirerTransactionRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, txns, matchRepo)

	lines.On("ListCardLines", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.PaymentLine{
			cardLine("777001", "visa", 1, 100.00),
		}, nil)
	txns.On("ListLatestBatch", mock.Anything, mock.Anything, "cielo", mock.Anything).
		Return([]*models.AcquirerTransaction{
			acquirerTxn("777001", "visa", 1, 100.03),
		}, nil)
	matchRepo.On("ListConfirmed", mock.Anything, mock.Anything, "cielo").
		Return(nil, nil)
	matchRepo.On("ReplaceUnconfirmed", mock.Anything, mock.Anything, "cielo", mock.Anything, mock.Anything).
		Return(nil)

	matches, err := svc.Preview(context.Background(), "cielo", nil)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.MatchOK, matches[0].Status)
}

func TestPreview_OrphansAndMissingReference(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	txns := new(mocks.MockAcquirerTransactionRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, txns, matchRepo)

	lines.On("ListCardLines", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.PaymentLine{
			cardLine("", "visa", 1, 50.00),       // no NSU typed at the PDV
			cardLine("999999", "visa", 1, 80.00), // NSU absent from the batch
		}, nil)
	txns.On("ListLatestBatch", mock.Anything, mock.Anything, "cielo", mock.Anything).
		Return([]*models.AcquirerTransaction{
			acquirerTxn("111111", "visa", 1, 70.00), // unreferenced by any line
		}, nil)
	matchRepo.On("ListConfirmed", mock.Anything, mock.Anything, "cielo").
		Return(nil, nil)
	matchRepo.On("ReplaceUnconfirmed", mock.Anything, mock.Anything, "cielo", mock.Anything, mock.Anything).
		Return(nil)

	matches, err := svc.Preview(context.Background(), "cielo", nil)

	require.NoError(t, err)
	require.Len(t, matches, 3)

	counts := make(map[domain.MatchStatus]int)
	for _, m := range matches {
		counts[m.Status]++
	}
	assert.Equal(t, 1, counts[domain.MatchMissingReference])
	assert.Equal(t, 1, counts[domain.MatchOrphanReceivable])
	assert.Equal(t, 1, counts[domain.MatchOrphanTransaction])
}

func TestPreview_EachUnreferencedTransactionAppearsOnce(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	txns := new(mocks.MockAcquirerTransactionRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, txns, matchRepo)

	lines.On("ListCardLines", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.PaymentLine{}, nil)
	batch := []*models.AcquirerTransaction{
		acquirerTxn("200001", "visa", 1, 10.00),
		acquirerTxn("200002", "visa", 1, 20.00),
		acquirerTxn("200003", "visa", 1, 30.00),
	}
	txns.On("ListLatestBatch", mock.Anything, mock.Anything, "cielo", mock.Anything).
		Return(batch, nil)
	matchRepo.On("ListConfirmed", mock.Anything, mock.Anything, "cielo").
		Return(nil, nil)
	matchRepo.On("ReplaceUnconfirmed", mock.Anything, mock.Anything, "cielo", mock.Anything, mock.Anything).
		Return(nil)

	matches, err := svc.Preview(context.Background(), "cielo", nil)

	require.NoError(t, err)
	require.Len(t, matches, 3)
	seen := make(map[string]int)
	for _, m := range matches {
		assert.Equal(t, domain.MatchOrphanTransaction, m.Status)
		seen[*m.NSU]++
	}
	for nsu, n := range seen {
		assert.Equal(t, 1, n, "nsu %s appeared %d times", nsu, n)
	}
}

func TestPreview_SortsByStatusRank(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	txns := new(mocks.MockAcquirerTransactionRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, txns, matchRepo)

	lines.On("ListCardLines", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.PaymentLine{
			cardLine("", "visa", 1, 10.00),
			cardLine("300001", "visa", 1, 40.00),
			cardLine("300404", "visa", 1, 20.00),
		}, nil)
	txns.On("ListLatestBatch", mock.Anything, mock.Anything, "cielo", mock.Anything).
		Return([]*models.AcquirerTransaction{
			acquirerTxn("300001", "visa", 1, 40.00),
			acquirerTxn("300999", "visa", 1, 15.00),
		}, nil)
	matchRepo.On("ListConfirmed", mock.Anything, mock.Anything, "cielo").
		Return(nil, nil)
	matchRepo.On("ReplaceUnconfirmed", mock.Anything, mock.Anything, "cielo", mock.Anything, mock.Anything).
		Return(nil)

	matches, err := svc.Preview(context.Background(), "cielo", nil)

	require.NoError(t, err)
	require.Len(t, matches, 4)
	assert.Equal(t, domain.MatchOK, matches[0].Status)
	assert.Equal(t, domain.MatchOrphanReceivable, matches[1].Status)
	assert.Equal(t, domain.MatchOrphanTransaction, matches[2].Status)
	assert.Equal(t, domain.MatchMissingReference, matches[3].Status)
}

func TestPreview_ConfirmedPairDoesNotReappear(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	txns := new(mocks.MockAcquirerTransactionRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, txns, matchRepo)

	settled := cardLine("600001", "visa", 1, 150.00)
	open := cardLine("600002", "visa", 1, 75.00)
	lines.On("ListCardLines", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.PaymentLine{settled, open}, nil)
	txns.On("ListLatestBatch", mock.Anything, mock.Anything, "cielo", mock.Anything).
		Return([]*models.AcquirerTransaction{
			acquirerTxn("600001", "visa", 1, 150.00),
			acquirerTxn("600002", "visa", 1, 75.00),
		}, nil)
	prior := confirmedMatch(domain.MatchOK, true)
	prior.PaymentLineID = &settled.ID
	prior.NSU = settled.NSU
	matchRepo.On("ListConfirmed", mock.Anything, mock.Anything, "cielo").
		Return([]*domain.Match{prior}, nil)
	matchRepo.On("ReplaceUnconfirmed", mock.Anything, mock.Anything, "cielo", mock.Anything, mock.Anything).
		Return(nil)

	matches, err := svc.Preview(context.Background(), "cielo", nil)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.MatchOK, matches[0].Status)
	assert.Equal(t, open.ID, *matches[0].PaymentLineID)
	for _, m := range matches {
		assert.NotEqual(t, domain.MatchOrphanTransaction, m.Status,
			"settled transaction resurfaced as orphan")
	}
}

func TestPreview_MissingAcquirer(t *testing.T) {
	svc := newTestService(new(mocks.MockPaymentLineRepository),
		new(mocks.MockAcquirerTransactionRepository), new(mocks.MockMatchRepository))

	_, err := svc.Preview(context.Background(), "", nil)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationMissingField))
}

func confirmedMatch(status domain.MatchStatus, confirmed bool) *domain.Match {
	lineID := uuid.New()
	saleID := uuid.New()
	nsu := "400001"
	return &domain.Match{
		ID:            uuid.New(),
		AcquirerID:    "cielo",
		PaymentLineID: &lineID,
		SaleID:        &saleID,
		NSU:           &nsu,
		Value:         decimal.NewFromFloat(120.00),
		Status:        status,
		Confirmed:     confirmed,
	}
}

func TestConfirm_WritesNSUBackAndMarksConfirmed(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, new(mocks.MockAcquirerTransactionRepository), matchRepo)

	m := confirmedMatch(domain.MatchOK, false)
	matchRepo.On("GetByIDs", mock.Anything, mock.Anything, []uuid.UUID{m.ID}).
		Return([]*domain.Match{m}, nil)
	lines.On("AttachNSU", mock.Anything, mock.Anything, *m.PaymentLineID, *m.NSU, "cielo").
		Return(nil)
	matchRepo.On("MarkConfirmed", mock.Anything, mock.Anything, m.ID, mock.Anything).
		Return(nil)

	result, err := svc.Confirm(context.Background(), []uuid.UUID{m.ID})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Confirmed)
	assert.Equal(t, 0, result.AlreadyConfirmed)
	lines.AssertExpectations(t)
	matchRepo.AssertExpectations(t)
}

func TestConfirm_AlreadyConfirmedIsCountedNoOp(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, new(mocks.MockAcquirerTransactionRepository), matchRepo)

	m := confirmedMatch(domain.MatchOK, true)
	matchRepo.On("GetByIDs", mock.Anything, mock.Anything, []uuid.UUID{m.ID}).
		Return([]*domain.Match{m}, nil)

	result, err := svc.Confirm(context.Background(), []uuid.UUID{m.ID})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Confirmed)
	assert.Equal(t, 1, result.AlreadyConfirmed)
	lines.AssertNotCalled(t, "AttachNSU", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirm_OrphanIsNotConfirmable(t *testing.T) {
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(new(mocks.MockPaymentLineRepository),
		new(mocks.MockAcquirerTransactionRepository), matchRepo)

	m := confirmedMatch(domain.MatchOrphanReceivable, false)
	matchRepo.On("GetByIDs", mock.Anything, mock.Anything, []uuid.UUID{m.ID}).
		Return([]*domain.Match{m}, nil)

	_, err := svc.Confirm(context.Background(), []uuid.UUID{m.ID})

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeMatchNotConfirmable))
}

func TestConfirm_DivergentRejectedInBulk(t *testing.T) {
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(new(mocks.MockPaymentLineRepository),
		new(mocks.MockAcquirerTransactionRepository), matchRepo)

	ok := confirmedMatch(domain.MatchOK, false)
	div := confirmedMatch(domain.MatchDivergent, false)
	ids := []uuid.UUID{ok.ID, div.ID}
	matchRepo.On("GetByIDs", mock.Anything, mock.Anything, ids).
		Return([]*domain.Match{ok, div}, nil)

	_, err := svc.Confirm(context.Background(), ids)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeMatchBulkDivergent))
}

func TestConfirm_DivergentAloneIsAllowed(t *testing.T) {
	lines := new(mocks.MockPaymentLineRepository)
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(lines, new(mocks.MockAcquirerTransactionRepository), matchRepo)

	m := confirmedMatch(domain.MatchDivergent, false)
	matchRepo.On("GetByIDs", mock.Anything, mock.Anything, []uuid.UUID{m.ID}).
		Return([]*domain.Match{m}, nil)
	lines.On("AttachNSU", mock.Anything, mock.Anything, *m.PaymentLineID, *m.NSU, "cielo").
		Return(nil)
	matchRepo.On("MarkConfirmed", mock.Anything, mock.Anything, m.ID, mock.Anything).
		Return(nil)

	result, err := svc.Confirm(context.Background(), []uuid.UUID{m.ID})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Confirmed)
}

func TestConfirm_UnknownIDFails(t *testing.T) {
	matchRepo := new(mocks.MockMatchRepository)
	svc := newTestService(new(mocks.MockPaymentLineRepository),
		new(mocks.MockAcquirerTransactionRepository), matchRepo)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	matchRepo.On("GetByIDs", mock.Anything, mock.Anything, ids).
		Return([]*domain.Match{confirmedMatch(domain.MatchOK, false)}, nil)

	_, err := svc.Confirm(context.Background(), ids)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeMatchNotFound))
}
