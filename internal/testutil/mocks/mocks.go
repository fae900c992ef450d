// Package mocks provides testify mocks for the domain ports, shared by the
// service test suites.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/mock"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

// StubDBPort runs transaction callbacks directly with a nil transaction,
// letting service tests exercise transactional flows without a database
type StubDBPort struct{}

func (StubDBPort) GetDB() *pgxpool.Pool { return nil }

func (StubDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

func (StubDBPort) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

// MockPaymentLineRepository mocks ports.PaymentLineRepository
type MockPaymentLineRepository struct {
	mock.Mock
}

func (m *MockPaymentLineRepository) ListCardLines(ctx context.Context, db ports.DBTX, date *time.Time) ([]*models.PaymentLine, error) {
	args := m.Called(ctx, db, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentLine), args.Error(1)
}

func (m *MockPaymentLineRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.PaymentLine, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentLine), args.Error(1)
}

func (m *MockPaymentLineRepository) AttachNSU(ctx context.Context, tx ports.DBTX, id uuid.UUID, nsu, acquirerID string) error {
	args := m.Called(ctx, tx, id, nsu, acquirerID)
	return args.Error(0)
}

// MockAcquirerTransactionRepository mocks ports.AcquirerTransactionRepository
type MockAcquirerTransactionRepository struct {
	mock.Mock
}

func (m *MockAcquirerTransactionRepository) ReplaceImportBatch(ctx context.Context, tx ports.DBTX, acquirerID string, batchID uuid.UUID, txns []*models.AcquirerTransaction) error {
	args := m.Called(ctx, tx, acquirerID, batchID, txns)
	return args.Error(0)
}

func (m *MockAcquirerTransactionRepository) ListLatestBatch(ctx context.Context, db ports.DBTX, acquirerID string, date *time.Time) ([]*models.AcquirerTransaction, error) {
	args := m.Called(ctx, db, acquirerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AcquirerTransaction), args.Error(1)
}

// MockMatchRepository mocks ports.MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) ReplaceUnconfirmed(ctx context.Context, tx ports.DBTX, acquirerID string, date *time.Time, matches []domain.Match) error {
	args := m.Called(ctx, tx, acquirerID, date, matches)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByIDs(ctx context.Context, db ports.DBTX, ids []uuid.UUID) ([]*domain.Match, error) {
	args := m.Called(ctx, db, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Match), args.Error(1)
}

func (m *MockMatchRepository) ListConfirmed(ctx context.Context, db ports.DBTX, acquirerID string) ([]*domain.Match, error) {
	args := m.Called(ctx, db, acquirerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Match), args.Error(1)
}

func (m *MockMatchRepository) MarkConfirmed(ctx context.Context, tx ports.DBTX, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tx, id, at)
	return args.Error(0)
}

func (m *MockMatchRepository) GetConfirmedByNSU(ctx context.Context, db ports.DBTX, acquirerID, nsu string) (*domain.Match, error) {
	args := m.Called(ctx, db, acquirerID, nsu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Match), args.Error(1)
}

// MockRunRepository mocks ports.RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Append(ctx context.Context, tx ports.DBTX, run *models.ReconciliationRun) error {
	args := m.Called(ctx, tx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.ReconciliationRun, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationRun), args.Error(1)
}

func (m *MockRunRepository) GetByChecksum(ctx context.Context, db ports.DBTX, acquirerID string, stage models.Stage, checksum string) (*models.ReconciliationRun, error) {
	args := m.Called(ctx, db, acquirerID, stage, checksum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationRun), args.Error(1)
}

func (m *MockRunRepository) LatestForScope(ctx context.Context, db ports.DBTX, acquirerID string, stage models.Stage, date time.Time) (*models.ReconciliationRun, error) {
	args := m.Called(ctx, db, acquirerID, stage, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationRun), args.Error(1)
}

func (m *MockRunRepository) List(ctx context.Context, db ports.DBTX, acquirerID string, stage *models.Stage, limit, offset int32) ([]*models.ReconciliationRun, error) {
	args := m.Called(ctx, db, acquirerID, stage, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReconciliationRun), args.Error(1)
}

func (m *MockRunRepository) NextVersion(ctx context.Context, db ports.DBTX, acquirerID string, stage models.Stage, date time.Time) (int32, error) {
	args := m.Called(ctx, db, acquirerID, stage, date)
	return args.Get(0).(int32), args.Error(1)
}

// MockReceiptRepository mocks ports.ReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) CreateDetails(ctx context.Context, tx ports.DBTX, runID uuid.UUID, details []*models.ReceiptDetail) error {
	args := m.Called(ctx, tx, runID, details)
	return args.Error(0)
}

func (m *MockReceiptRepository) ListByRun(ctx context.Context, db ports.DBTX, runID uuid.UUID) ([]*models.ReceiptDetail, error) {
	args := m.Called(ctx, db, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReceiptDetail), args.Error(1)
}

// MockSettlementRepository mocks ports.SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx ports.DBTX, result *models.SettlementResult) error {
	args := m.Called(ctx, tx, result)
	return args.Error(0)
}

func (m *MockSettlementRepository) Exists(ctx context.Context, db ports.DBTX, installmentID uuid.UUID, acquirerID string, date time.Time) (bool, error) {
	args := m.Called(ctx, db, installmentID, acquirerID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettlementRepository) ExistsForSale(ctx context.Context, db ports.DBTX, saleID uuid.UUID, acquirerID string, date time.Time) (bool, error) {
	args := m.Called(ctx, db, saleID, acquirerID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettlementRepository) ListByRun(ctx context.Context, db ports.DBTX, runID uuid.UUID) ([]*models.SettlementResult, error) {
	args := m.Called(ctx, db, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SettlementResult), args.Error(1)
}

// MockInstallmentRepository mocks ports.InstallmentRepository
type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) FindOldestOpen(ctx context.Context, db ports.DBTX, saleID uuid.UUID) (*models.ReceivableInstallment, error) {
	args := m.Called(ctx, db, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReceivableInstallment), args.Error(1)
}

func (m *MockInstallmentRepository) CountOpenBySale(ctx context.Context, db ports.DBTX, saleID uuid.UUID) (int32, error) {
	args := m.Called(ctx, db, saleID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockInstallmentRepository) MarkSettled(ctx context.Context, tx ports.DBTX, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tx, id, at)
	return args.Error(0)
}

// MockScopeLocker mocks ports.ScopeLocker
type MockScopeLocker struct {
	mock.Mock
}

func (m *MockScopeLocker) TryLockScope(ctx context.Context, tx ports.DBTX, acquirerID string, date time.Time) (bool, error) {
	args := m.Called(ctx, tx, acquirerID, date)
	return args.Bool(0), args.Error(1)
}
