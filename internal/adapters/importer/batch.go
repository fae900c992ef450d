package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// Acquirer batch receipt: semicolon-separated, decimal comma, 19 columns.
// Only value, brand, modality, traceable payment id and payment status are
// consumed; the remaining columns are operator bookkeeping.
const (
	batchFieldCount = 19

	batchColValue     = 3
	batchColBrand     = 5
	batchColModality  = 6
	batchColPaymentID = 11
	batchColStatus    = 14
)

// BatchImport is the outcome of parsing one batch receipt file
type BatchImport struct {
	Receipts []*models.BatchReceipt
	Errors   []ParseError
	Total    decimal.Decimal
}

// ParseBatchReceipts streams an acquirer batch-payment receipt file.
// Malformed lines are collected, valid lines proceed.
func ParseBatchReceipts(r io.Reader) (*BatchImport, error) {
	result := &BatchImport{Total: decimal.Zero}

	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if lineNo == 1 && len(fields) > batchColValue {
			if _, err := parseValue(fields[batchColValue]); err != nil {
				continue // header row
			}
		}
		if len(fields) < batchFieldCount {
			result.Errors = append(result.Errors, lineError(lineNo, line,
				fmt.Errorf("expected %d columns, got %d", batchFieldCount, len(fields))))
			continue
		}

		value, err := parseValue(fields[batchColValue])
		if err != nil {
			result.Errors = append(result.Errors, lineError(lineNo, line, fmt.Errorf("value: %w", err)))
			continue
		}
		paymentID := strings.TrimSpace(fields[batchColPaymentID])
		if paymentID == "" {
			result.Errors = append(result.Errors, lineError(lineNo, line,
				fmt.Errorf("missing payment identifier")))
			continue
		}

		receipt := &models.BatchReceipt{
			PaymentID: paymentID,
			Brand:     strings.TrimSpace(fields[batchColBrand]),
			Modality:  strings.TrimSpace(fields[batchColModality]),
			Status:    strings.TrimSpace(fields[batchColStatus]),
			Value:     value,
		}
		result.Receipts = append(result.Receipts, receipt)
		result.Total = result.Total.Add(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch receipt file: %w", err)
	}
	return result, nil
}
