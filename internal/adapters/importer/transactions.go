package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// Acquirer transaction export: semicolon-separated, decimal comma, Latin-1.
// NSU;due date;brand;product;installments;installment number;gross;net;
// status;last-status date.
const transactionFieldCount = 10

// TransactionImport is the outcome of parsing one acquirer export file.
// Valid rows and per-line errors are reported side by side.
type TransactionImport struct {
	BatchID      uuid.UUID
	Transactions []*models.AcquirerTransaction
	Errors       []ParseError
	TotalGross   decimal.Decimal
	TotalNet     decimal.Decimal
}

// statusFromExport normalizes the acquirer's status wording
func statusFromExport(s string) models.AcquirerTransactionStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pago", "liquidado", "settled":
		return models.AcquirerTxnSettled
	case "cancelado", "cancelled":
		return models.AcquirerTxnCancelled
	case "estornado", "chargeback":
		return models.AcquirerTxnChargedBack
	default:
		return models.AcquirerTxnPending
	}
}

// ParseAcquirerTransactions streams an acquirer settlement export and
// returns the normalized rows. A malformed line is recorded and skipped;
// the rest of the file still parses.
func ParseAcquirerTransactions(r io.Reader, acquirerID string) (*TransactionImport, error) {
	result := &TransactionImport{
		BatchID:    uuid.New(),
		TotalGross: decimal.Zero,
		TotalNet:   decimal.Zero,
	}
	seen := make(map[string]int)

	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if lineNo == 1 && looksLikeHeader(fields[0]) {
			continue
		}
		if len(fields) < transactionFieldCount {
			result.Errors = append(result.Errors, lineError(lineNo, line,
				fmt.Errorf("expected %d fields, got %d", transactionFieldCount, len(fields))))
			continue
		}

		txn, err := parseTransactionLine(fields, acquirerID, result.BatchID)
		if err != nil {
			result.Errors = append(result.Errors, lineError(lineNo, line, err))
			continue
		}
		if prev, dup := seen[txn.NSU]; dup {
			result.Errors = append(result.Errors, lineError(lineNo, line,
				fmt.Errorf("duplicate NSU %s (first seen on line %d)", txn.NSU, prev)))
			continue
		}
		seen[txn.NSU] = lineNo

		result.Transactions = append(result.Transactions, txn)
		result.TotalGross = result.TotalGross.Add(txn.GrossValue)
		result.TotalNet = result.TotalNet.Add(txn.NetValue)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read acquirer export: %w", err)
	}
	return result, nil
}

func parseTransactionLine(fields []string, acquirerID string, batchID uuid.UUID) (*models.AcquirerTransaction, error) {
	nsu := strings.TrimSpace(fields[0])
	if nsu == "" {
		return nil, fmt.Errorf("missing NSU")
	}
	dueDate, err := parseDate(fields[1])
	if err != nil {
		return nil, fmt.Errorf("due date: %w", err)
	}
	installments, err := parseCount(fields[4])
	if err != nil {
		return nil, fmt.Errorf("installments: %w", err)
	}
	installmentNumber, err := parseCount(fields[5])
	if err != nil {
		return nil, fmt.Errorf("installment number: %w", err)
	}
	gross, err := parseValue(fields[6])
	if err != nil {
		return nil, fmt.Errorf("gross value: %w", err)
	}
	net, err := parseValue(fields[7])
	if err != nil {
		return nil, fmt.Errorf("net value: %w", err)
	}
	statusDate, err := parseDate(fields[9])
	if err != nil {
		// the last-status date is informational; fall back to due date
		statusDate = dueDate
	}

	return &models.AcquirerTransaction{
		ID:                uuid.New(),
		AcquirerID:        acquirerID,
		ImportBatchID:     batchID,
		NSU:               nsu,
		Brand:             strings.TrimSpace(fields[2]),
		Product:           strings.TrimSpace(fields[3]),
		Installments:      installments,
		InstallmentNumber: installmentNumber,
		GrossValue:        gross,
		NetValue:          net,
		Status:            statusFromExport(fields[8]),
		DueDate:           dueDate,
		StatusDate:        statusDate,
		CreatedAt:         time.Now(),
	}, nil
}
