// Package reconciliation exposes the reconciliation pipeline over HTTP.
package reconciliation

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/adapters/importer"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/cascade"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/history"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/matching"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/settlement"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/pkg/observability"
)

const dateLayout = "2006-01-02"

// Handler wires the pipeline services to HTTP routes
type Handler struct {
	matching   *matching.Service
	cascade    *cascade.Service
	settlement *settlement.Service
	history    *history.Service
	logger     ports.Logger
}

// NewHandler creates a new reconciliation handler
func NewHandler(
	matchingSvc *matching.Service,
	cascadeSvc *cascade.Service,
	settlementSvc *settlement.Service,
	historySvc *history.Service,
	logger ports.Logger,
) *Handler {
	return &Handler{
		matching:   matchingSvc,
		cascade:    cascadeSvc,
		settlement: settlementSvc,
		history:    historySvc,
		logger:     logger,
	}
}

// RegisterRoutes mounts the API under /api/v1/reconciliation
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/v1/reconciliation")
	api.POST("/imports/transactions", h.ImportTransactions)
	api.GET("/matches/preview", h.MatchPreview)
	api.POST("/matches/confirm", h.MatchConfirm)
	api.POST("/cascade/validate", h.CascadeValidate)
	api.POST("/cascade/runs/:id/accept", h.CascadeAccept)
	api.GET("/settlement/preview", h.SettlementPreview)
	api.POST("/settlement/apply", h.SettlementApply)
	api.GET("/runs", h.ListRuns)
	api.GET("/runs/:id", h.GetRun)
}

type importResponse struct {
	BatchID     uuid.UUID             `json:"batch_id"`
	Imported    int                   `json:"imported"`
	TotalGross  string                `json:"total_gross"`
	TotalNet    string                `json:"total_net"`
	ParseErrors []importer.ParseError `json:"parse_errors,omitempty"`
}

// ImportTransactions receives an acquirer settlement export and replaces
// the acquirer's current batch
func (h *Handler) ImportTransactions(c *gin.Context) {
	acquirerID := c.PostForm("acquirer_id")
	if acquirerID == "" {
		respondBadRequest(c, "acquirer_id is required")
		return
	}
	file, err := openFormFile(c, "file")
	if err != nil {
		respondBadRequest(c, "file not found or invalid")
		return
	}
	defer file.Close()

	imp, err := importer.ParseAcquirerTransactions(file, acquirerID)
	if err != nil {
		respondError(c, err)
		return
	}
	observability.RecordParseErrors("acquirer_export", len(imp.Errors))

	if err := h.matching.ImportBatch(c.Request.Context(), acquirerID, imp.BatchID, imp.Transactions); err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, importResponse{
		BatchID:     imp.BatchID,
		Imported:    len(imp.Transactions),
		TotalGross:  imp.TotalGross.StringFixed(2),
		TotalNet:    imp.TotalNet.StringFixed(2),
		ParseErrors: imp.Errors,
	})
}

// MatchPreview classifies payment lines against the latest acquirer batch
func (h *Handler) MatchPreview(c *gin.Context) {
	acquirerID := c.Query("acquirer_id")
	date, ok := optionalDate(c, "date")
	if !ok {
		return
	}

	matches, err := h.matching.Preview(c.Request.Context(), acquirerID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"matches": matches, "total": len(matches)})
}

type confirmRequest struct {
	MatchIDs []uuid.UUID `json:"match_ids" binding:"required"`
}

// MatchConfirm confirms a batch of previewed matches
func (h *Handler) MatchConfirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.matching.Confirm(c.Request.Context(), req.MatchIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// CascadeValidate receives the three receipt files and runs Stage 2.
// The detail rows come from the acquirer export, the batch file carries
// the consolidated payments, and the OFX statement the bank credits.
func (h *Handler) CascadeValidate(c *gin.Context) {
	acquirerID := c.PostForm("acquirer_id")
	if acquirerID == "" {
		respondBadRequest(c, "acquirer_id is required")
		return
	}
	date, err := time.Parse(dateLayout, c.PostForm("date"))
	if err != nil {
		respondBadRequest(c, "date must be YYYY-MM-DD")
		return
	}

	detailFile, err := openFormFile(c, "detail_file")
	if err != nil {
		respondBadRequest(c, "detail_file not found or invalid")
		return
	}
	defer detailFile.Close()
	batchFile, err := openFormFile(c, "batch_file")
	if err != nil {
		respondBadRequest(c, "batch_file not found or invalid")
		return
	}
	defer batchFile.Close()
	statementFile, err := openFormFile(c, "statement_file")
	if err != nil {
		respondBadRequest(c, "statement_file not found or invalid")
		return
	}
	defer statementFile.Close()

	detailImp, err := importer.ParseAcquirerTransactions(detailFile, acquirerID)
	if err != nil {
		respondError(c, err)
		return
	}
	batchImp, err := importer.ParseBatchReceipts(batchFile)
	if err != nil {
		respondError(c, err)
		return
	}
	stmtImp, err := importer.ParseBankStatement(statementFile)
	if err != nil {
		respondError(c, err)
		return
	}
	observability.RecordParseErrors("acquirer_export", len(detailImp.Errors))
	observability.RecordParseErrors("batch_receipt", len(batchImp.Errors))
	observability.RecordParseErrors("bank_statement", len(stmtImp.Errors))

	result, err := h.cascade.Validate(c.Request.Context(), cascade.ValidateRequest{
		AcquirerID:             acquirerID,
		Date:                   date,
		Details:                importer.ReceiptDetailsFromExport(detailImp),
		Batches:                batchImp.Receipts,
		Credits:                stmtImp.Credits,
		IgnoreAcquirerMismatch: c.PostForm("ignore_acquirer_mismatch") == "true",
		InitiatedBy:            initiatedBy(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Reprocessing {
		observability.RecordRun(string(models.StageCascade), string(result.Verdict))
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"result": result,
		"parse_errors": gin.H{
			"detail":    detailImp.Errors,
			"batch":     batchImp.Errors,
			"statement": stmtImp.Errors,
		},
	})
}

type acceptRequest struct {
	AcceptedBy string `json:"accepted_by"`
}

// CascadeAccept advances a divergent cascade run after operator review
func (h *Handler) CascadeAccept(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid run id")
		return
	}
	var req acceptRequest
	_ = c.ShouldBindJSON(&req)
	if req.AcceptedBy == "" {
		req.AcceptedBy = initiatedBy(c)
	}

	result, err := h.cascade.AcceptDivergence(c.Request.Context(), runID, req.AcceptedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	observability.RecordRun(string(models.StageCascade), string(result.Verdict))
	respondSuccess(c, http.StatusOK, result)
}

// SettlementPreview dry-runs Stage 3 for a scope
func (h *Handler) SettlementPreview(c *gin.Context) {
	acquirerID, date, ok := requireScope(c)
	if !ok {
		return
	}
	result, err := h.settlement.Preview(c.Request.Context(), acquirerID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"validated_receipts":    result.Total,
		"installments_to_settle": result.Amarrados,
		"total_value":           result.TotalSettled,
		"result":                result,
	})
}

type applyRequest struct {
	AcquirerID string `json:"acquirer_id" binding:"required"`
	Date       string `json:"date" binding:"required"`
}

// SettlementApply settles the validated receipts for a scope
func (h *Handler) SettlementApply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		respondBadRequest(c, "date must be YYYY-MM-DD")
		return
	}

	result, err := h.settlement.Apply(c.Request.Context(), req.AcquirerID, date, initiatedBy(c))
	if err != nil {
		respondError(c, err)
		return
	}
	observability.RecordRun(string(models.StageSettlement), string(models.VerdictApplied))
	observability.RecordAutomationRate(result.AutomationRate)

	respondSuccess(c, http.StatusOK, gin.H{
		"result":              result,
		"parcelas_liquidadas": result.Amarrados,
		"lista_orfaos":        result.Orphans(),
	})
}

// ListRuns pages through the audit log
func (h *Handler) ListRuns(c *gin.Context) {
	acquirerID := c.Query("acquirer_id")
	var stage *models.Stage
	if s := c.Query("stage"); s != "" {
		st := models.Stage(s)
		stage = &st
	}
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)

	runs, err := h.history.ListRuns(c.Request.Context(), acquirerID, stage, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}

// GetRun loads one run with its settlement results
func (h *Handler) GetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid run id")
		return
	}
	detail, err := h.history.GetRun(c.Request.Context(), runID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}
