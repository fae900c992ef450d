package importer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// knownAcquirers are the processor names recognized in product
// descriptions, used by Stage 2 to detect operator-selection mistakes
var knownAcquirers = []string{
	"cielo", "rede", "stone", "getnet", "pagseguro", "safrapay", "sipag", "vero",
}

// ReceiptDetailsFromExport converts parsed acquirer export rows into the
// detail records consumed by cascade validation. Net values are used: the
// cascade compares what was actually paid out.
func ReceiptDetailsFromExport(imp *TransactionImport) []*models.ReceiptDetail {
	details := make([]*models.ReceiptDetail, 0, len(imp.Transactions))
	for _, txn := range imp.Transactions {
		details = append(details, &models.ReceiptDetail{
			ID:           uuid.New(),
			AcquirerName: inferAcquirerName(txn.Product, txn.AcquirerID),
			NSU:          txn.NSU,
			Date:         txn.DueDate,
			Value:        txn.NetValue,
		})
	}
	return details
}

// inferAcquirerName extracts the processor name embedded in a product
// description like "CIELO CREDITO PARCELADO". Falls back to the
// import-time acquirer when nothing is recognized.
func inferAcquirerName(product, fallback string) string {
	normalized := strings.ToLower(product)
	for _, name := range knownAcquirers {
		if strings.Contains(normalized, name) {
			return name
		}
	}
	return strings.ToLower(strings.TrimSpace(fallback))
}
