package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/dto"
	"github.com/SscSPs/cashdesk_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests on the transaction workflow.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{transactionService: ts}
}

// registerTransactionRoutes registers routes related to transactions.
func registerTransactionRoutes(rg *gin.RouterGroup, transactionService portssvc.TransactionSvcFacade) {
	h := newTransactionHandler(transactionService)

	txns := rg.Group("/transactions")
	{
		txns.POST("", h.createTransaction)
		txns.GET("", h.listTransactions)
		txns.GET("/:id", h.getTransaction)
		txns.PATCH("/:id/status", h.updateStatus)
		txns.POST("/:id/validate-real-amount", h.validateRealAmount)
		txns.POST("/:id/execute", h.execute)
		txns.POST("/:id/deletion-request", h.requestDeletion)
		txns.POST("/:id/deletion-approval", h.approveDeletion)
	}
}

// createTransaction godoc
// @Summary Create a transaction
// @Description Records a transaction; receipts are completed at once, everything else starts pending
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} domain.Transaction
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Settlement transactions are created by closeouts only"
// @Security BearerAuth
// @Router /transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	details, err := domain.UnmarshalDetails(req.Type, req.Details)
	if err != nil {
		logger.Warn("Invalid transaction details", slog.String("type", string(req.Type)), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid details: " + err.Error()})
		return
	}

	txn, err := h.transactionService.CreateTransaction(c.Request.Context(), actor, portssvc.CreateTransactionInput{
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    strings.ToUpper(req.Currency),
		Details:     details,
	})
	if err != nil {
		respondError(c, err, "create transaction")
		return
	}
	logger.Info("Transaction created", slog.String("transaction_id", txn.TransactionID), slog.String("status", string(txn.Status)))
	c.JSON(http.StatusCreated, txn)
}

// listTransactions godoc
// @Summary List transactions
// @Description Agents and cashiers only see their own transactions
// @Tags transactions
// @Produce  json
// @Param   status query string false "Status"
// @Param   type query string false "Type"
// @Param   agency query string false "Agency"
// @Param   createdBy query string false "Creator"
// @Param   from query string false "Lower bound (RFC 3339)"
// @Param   to query string false "Upper bound, exclusive (RFC 3339)"
// @Param   limit query int false "Page size (default 100, max 1000)"
// @Param   pageToken query string false "Token of the next page"
// @Success 200 {object} dto.ListResponse[domain.Transaction]
// @Security BearerAuth
// @Router /transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q dto.TransactionQuery
	if !bindQuery(c, &q) {
		return
	}
	offset, ok := pageOffset(c, q.PageQuery)
	if !ok {
		return
	}
	txns, err := h.transactionService.ListTransactions(c.Request.Context(), actor, domain.TransactionFilter{
		Status:    q.Status,
		Type:      q.Type,
		Agency:    q.Agency,
		CreatedBy: q.CreatedBy,
		From:      q.From,
		To:        q.To,
		Limit:     q.Limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(c, err, "list transactions")
		return
	}
	c.JSON(http.StatusOK, listResponse(txns, q.PageQuery, offset))
}

// getTransaction godoc
// @Summary Get a transaction
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} domain.Transaction
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	txn, err := h.transactionService.GetTransaction(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// updateStatus godoc
// @Summary Change a transaction status
// @Description Generic transition; a reason is required for rejections
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   status body dto.UpdateStatusRequest true "Target status"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Transition not allowed"
// @Security BearerAuth
// @Router /transactions/{id}/status [patch]
func (h *transactionHandler) updateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	txn, err := h.transactionService.UpdateTransactionStatus(c.Request.Context(), actor, c.Param("id"), req.Status, req.Reason)
	if err != nil {
		respondError(c, err, "update transaction status")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// validateRealAmount godoc
// @Summary Validate a transfer against the real amount paid
// @Description Computes the commission; a shortfall rejects the transfer
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   amount body dto.ValidateRealAmountRequest true "Real amount in the settlement currency"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /transactions/{id}/validate-real-amount [post]
func (h *transactionHandler) validateRealAmount(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.ValidateRealAmountRequest
	if !bindJSON(c, &req) {
		return
	}
	txn, err := h.transactionService.ValidateTransferRealAmount(c.Request.Context(), actor, c.Param("id"), req.RealAmount)
	if err != nil {
		respondError(c, err, "validate transfer")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Transfer decided",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("status", string(txn.Status)))
	c.JSON(http.StatusOK, txn)
}

// execute godoc
// @Summary Execute a validated transfer
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   execution body dto.ExecuteTransactionRequest true "Payout receipt"
// @Success 200 {object} domain.Transaction
// @Failure 403 {object} dto.ErrorResponse "Assigned to another executor"
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /transactions/{id}/execute [post]
func (h *transactionHandler) execute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.ExecuteTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	txn, err := h.transactionService.ExecuteTransaction(c.Request.Context(), actor, c.Param("id"), portssvc.ExecuteInput{
		ReceiptRef: req.ReceiptRef,
		Comment:    req.Comment,
		AsAuditor:  req.AsAuditor,
	})
	if err != nil {
		respondError(c, err, "execute transaction")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// requestDeletion godoc
// @Summary Request deletion of a completed transaction
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   request body dto.ReasonRequest true "Reason"
// @Success 200 {object} domain.Transaction
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /transactions/{id}/deletion-request [post]
func (h *transactionHandler) requestDeletion(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindJSON(c, &req) {
		return
	}
	txn, err := h.transactionService.RequestDeletion(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err, "request deletion")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// approveDeletion godoc
// @Summary Approve a deletion request
// @Description The transaction ends rejected; a validated transfer's commission is reversed
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} domain.Transaction
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /transactions/{id}/deletion-approval [post]
func (h *transactionHandler) approveDeletion(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	txn, err := h.transactionService.ValidateDeletion(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "approve deletion")
		return
	}
	c.JSON(http.StatusOK, txn)
}
