package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/dto"
	"github.com/SscSPs/cashdesk_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles HTTP requests on the cash account ledger.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers routes related to cash accounts.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
		accounts.POST("/transfer", h.transfer)
		accounts.GET("/:kind", h.getAccount)
		accounts.GET("/:kind/movements", h.listMovements)
		accounts.POST("/:kind/debit", h.debit)
		accounts.POST("/:kind/deposit", h.deposit)
		accounts.POST("/:kind/commission", h.postCommission)
		accounts.PUT("/:kind/balance", h.setBalance)
		accounts.POST("/:kind/reconcile", h.reconcile)
	}
}

// listAccounts godoc
// @Summary List cash accounts
// @Description Lists every ledger account with its current balance
// @Tags accounts
// @Produce  json
// @Success 200 {array} domain.CashAccount
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *ledgerHandler) listAccounts(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	accounts, err := h.ledgerService.GetAccounts(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "list accounts")
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// getAccount godoc
// @Summary Get a cash account
// @Tags accounts
// @Produce  json
// @Param   kind path string true "Account kind"
// @Success 200 {object} domain.CashAccount
// @Failure 400 {object} dto.ErrorResponse "Unknown account kind"
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /accounts/{kind} [get]
func (h *ledgerHandler) getAccount(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	account, err := h.ledgerService.GetAccount(c.Request.Context(), actor, domain.AccountKind(c.Param("kind")))
	if err != nil {
		respondError(c, err, "retrieve account")
		return
	}
	c.JSON(http.StatusOK, account)
}

// listMovements godoc
// @Summary List account movements
// @Description Range query over the append-only movement log of one account
// @Tags accounts
// @Produce  json
// @Param   kind path string true "Account kind"
// @Param   kind query string false "Movement kind"
// @Param   from query string false "Lower bound (RFC 3339)"
// @Param   to query string false "Upper bound, exclusive (RFC 3339)"
// @Param   limit query int false "Page size (default 100, max 1000)"
// @Param   pageToken query string false "Token of the next page"
// @Success 200 {object} dto.ListResponse[domain.CashMovement]
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /accounts/{kind}/movements [get]
func (h *ledgerHandler) listMovements(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q dto.MovementQuery
	if !bindQuery(c, &q) {
		return
	}
	offset, ok := pageOffset(c, q.PageQuery)
	if !ok {
		return
	}
	movements, err := h.ledgerService.ListMovements(c.Request.Context(), actor, domain.MovementFilter{
		AccountKind: domain.AccountKind(c.Param("kind")),
		Kind:        q.Kind,
		From:        q.From,
		To:          q.To,
		Limit:       q.Limit,
		Offset:      offset,
	})
	if err != nil {
		respondError(c, err, "list movements")
		return
	}
	c.JSON(http.StatusOK, listResponse(movements, q.PageQuery, offset))
}

// debit godoc
// @Summary Debit an account
// @Description Withdraws funds; fails when the balance would go negative
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   kind path string true "Account kind"
// @Param   entry body dto.LedgerEntryRequest true "Amount and note"
// @Success 200 {object} domain.CashAccount
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse "Insufficient funds"
// @Security BearerAuth
// @Router /accounts/{kind}/debit [post]
func (h *ledgerHandler) debit(c *gin.Context) {
	h.applyEntry(c, "debit account", h.ledgerService.Debit)
}

// deposit godoc
// @Summary Deposit into an account
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   kind path string true "Account kind"
// @Param   entry body dto.LedgerEntryRequest true "Amount and note"
// @Success 200 {object} domain.CashAccount
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Pools only accept commissions"
// @Security BearerAuth
// @Router /accounts/{kind}/deposit [post]
func (h *ledgerHandler) deposit(c *gin.Context) {
	h.applyEntry(c, "deposit into account", h.ledgerService.Deposit)
}

// postCommission godoc
// @Summary Post a commission to a pool
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   kind path string true "Pool kind"
// @Param   entry body dto.LedgerEntryRequest true "Amount, note and reference"
// @Success 200 {object} domain.CashAccount
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /accounts/{kind}/commission [post]
func (h *ledgerHandler) postCommission(c *gin.Context) {
	h.applyEntry(c, "post commission", h.ledgerService.PostCommission)
}

func (h *ledgerHandler) applyEntry(c *gin.Context, action string, apply func(context.Context, domain.Actor, portssvc.LedgerEntry) (*domain.CashAccount, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.LedgerEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	kind := domain.AccountKind(c.Param("kind"))
	account, err := apply(c.Request.Context(), actor, portssvc.LedgerEntry{
		Kind:      kind,
		Amount:    req.Amount,
		Note:      req.Note,
		Reference: req.Reference,
	})
	if err != nil {
		respondError(c, err, action)
		return
	}
	logger.Info("Ledger entry applied", slog.String("action", action), slog.String("account", string(kind)), slog.String("amount", req.Amount.String()))
	c.JSON(http.StatusOK, account)
}

// setBalance godoc
// @Summary Set an account balance
// @Description Administrative override of a non-pool account; the difference is logged as a movement
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   kind path string true "Account kind"
// @Param   balance body dto.SetBalanceRequest true "New balance and note"
// @Success 200 {object} domain.CashAccount
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Pools cannot be set"
// @Security BearerAuth
// @Router /accounts/{kind}/balance [put]
func (h *ledgerHandler) setBalance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.SetBalanceRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.ledgerService.SetAccountBalance(c.Request.Context(), actor, domain.AccountKind(c.Param("kind")), req.Balance, req.Note)
	if err != nil {
		respondError(c, err, "set account balance")
		return
	}
	c.JSON(http.StatusOK, account)
}

// transfer godoc
// @Summary Transfer between accounts
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   transfer body dto.AccountTransferRequest true "Source, destination and amount"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse "Insufficient funds"
// @Security BearerAuth
// @Router /accounts/transfer [post]
func (h *ledgerHandler) transfer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.AccountTransferRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ledgerService.TransferBetweenAccounts(c.Request.Context(), actor, req.From, req.To, req.Amount, req.Note); err != nil {
		respondError(c, err, "transfer between accounts")
		return
	}
	c.Status(http.StatusNoContent)
}

// reconcile godoc
// @Summary Reconcile an account
// @Description Recomputes the balance from the movement log and persists it
// @Tags accounts
// @Produce  json
// @Param   kind path string true "Account kind"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /accounts/{kind}/reconcile [post]
func (h *ledgerHandler) reconcile(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	kind := domain.AccountKind(c.Param("kind"))
	reconcile := h.ledgerService.ReconcileAccount
	if kind.IsPool() {
		reconcile = h.ledgerService.ReconcilePool
	}
	balance, err := reconcile(c.Request.Context(), actor, kind)
	if err != nil {
		respondError(c, err, "reconcile account")
		return
	}
	c.JSON(http.StatusOK, dto.ReconcileResponse{Key: string(kind), Balance: balance})
}
