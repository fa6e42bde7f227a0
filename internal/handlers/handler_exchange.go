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

// exchangeHandler handles HTTP requests on the exchange desk.
type exchangeHandler struct {
	exchangeService portssvc.ExchangeSvcFacade
}

func newExchangeHandler(es portssvc.ExchangeSvcFacade) *exchangeHandler {
	return &exchangeHandler{exchangeService: es}
}

// registerExchangeRoutes registers routes related to the exchange desk.
func registerExchangeRoutes(rg *gin.RouterGroup, exchangeService portssvc.ExchangeSvcFacade) {
	h := newExchangeHandler(exchangeService)

	exchange := rg.Group("/exchange")
	{
		exchange.GET("/tills", h.getTills)
		exchange.POST("/tills/:currency/adjust", h.adjustTill)
		exchange.POST("/tills/:currency/reconcile", h.reconcileTill)
		exchange.POST("/replenishments", h.replenish)
		exchange.POST("/sales", h.sell)
		exchange.POST("/cessions", h.cede)
		exchange.GET("/operations", h.listOperations)
	}
}

// getTills godoc
// @Summary List exchange tills
// @Tags exchange
// @Produce  json
// @Success 200 {array} domain.ExchangeTill
// @Security BearerAuth
// @Router /exchange/tills [get]
func (h *exchangeHandler) getTills(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	tills, err := h.exchangeService.GetTills(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "list tills")
		return
	}
	c.JSON(http.StatusOK, tills)
}

// replenish godoc
// @Summary Replenish a till
// @Description Buys foreign currency; fees are deducted in the target currency
// @Tags exchange
// @Accept  json
// @Produce  json
// @Param   replenishment body dto.ReplenishmentRequest true "Replenishment"
// @Success 201 {object} domain.ExchangeOperation
// @Failure 400 {object} dto.ErrorResponse "Validation error or no funding source"
// @Failure 422 {object} dto.ErrorResponse "Insufficient funds"
// @Security BearerAuth
// @Router /exchange/replenishments [post]
func (h *exchangeHandler) replenish(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.ReplenishmentRequest
	if !bindJSON(c, &req) {
		return
	}
	op, err := h.exchangeService.RecordReplenishment(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		respondError(c, err, "record replenishment")
		return
	}
	h.logOperation(c, op)
	c.JSON(http.StatusCreated, op)
}

// sell godoc
// @Summary Sell foreign currency
// @Tags exchange
// @Accept  json
// @Produce  json
// @Param   sale body dto.SaleRequest true "Sale"
// @Success 201 {object} domain.ExchangeOperation
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse "Insufficient funds"
// @Security BearerAuth
// @Router /exchange/sales [post]
func (h *exchangeHandler) sell(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.SaleRequest
	if !bindJSON(c, &req) {
		return
	}
	op, err := h.exchangeService.RecordSale(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		respondError(c, err, "record sale")
		return
	}
	h.logOperation(c, op)
	c.JSON(http.StatusCreated, op)
}

// cede godoc
// @Summary Cede till funds
// @Tags exchange
// @Accept  json
// @Produce  json
// @Param   cession body dto.CessionRequest true "Cession"
// @Success 201 {object} domain.ExchangeOperation
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse "Insufficient funds"
// @Security BearerAuth
// @Router /exchange/cessions [post]
func (h *exchangeHandler) cede(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CessionRequest
	if !bindJSON(c, &req) {
		return
	}
	op, err := h.exchangeService.RecordCession(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		respondError(c, err, "record cession")
		return
	}
	h.logOperation(c, op)
	c.JSON(http.StatusCreated, op)
}

// adjustTill godoc
// @Summary Adjust a till balance
// @Tags exchange
// @Accept  json
// @Produce  json
// @Param   currency path string true "Currency code"
// @Param   adjustment body dto.AdjustTillRequest true "New balance and note"
// @Success 201 {object} domain.ExchangeOperation
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /exchange/tills/{currency}/adjust [post]
func (h *exchangeHandler) adjustTill(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.AdjustTillRequest
	if !bindJSON(c, &req) {
		return
	}
	op, err := h.exchangeService.AdjustTill(c.Request.Context(), actor, strings.ToUpper(c.Param("currency")), req.Balance, req.Note)
	if err != nil {
		respondError(c, err, "adjust till")
		return
	}
	h.logOperation(c, op)
	c.JSON(http.StatusCreated, op)
}

// reconcileTill godoc
// @Summary Reconcile a till
// @Description Recomputes the till from its operation legs and persists the result
// @Tags exchange
// @Produce  json
// @Param   currency path string true "Currency code"
// @Success 200 {object} dto.ReconcileResponse
// @Security BearerAuth
// @Router /exchange/tills/{currency}/reconcile [post]
func (h *exchangeHandler) reconcileTill(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	currency := strings.ToUpper(c.Param("currency"))
	balance, err := h.exchangeService.ReconcileTill(c.Request.Context(), actor, currency)
	if err != nil {
		respondError(c, err, "reconcile till")
		return
	}
	c.JSON(http.StatusOK, dto.ReconcileResponse{Key: currency, Balance: balance})
}

// listOperations godoc
// @Summary List exchange operations
// @Tags exchange
// @Produce  json
// @Param   kind query string false "Operation kind"
// @Param   currency query string false "Currency code"
// @Param   from query string false "Lower bound (RFC 3339)"
// @Param   to query string false "Upper bound, exclusive (RFC 3339)"
// @Param   limit query int false "Page size (default 100, max 1000)"
// @Param   pageToken query string false "Token of the next page"
// @Success 200 {object} dto.ListResponse[domain.ExchangeOperation]
// @Security BearerAuth
// @Router /exchange/operations [get]
func (h *exchangeHandler) listOperations(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q dto.OperationQuery
	if !bindQuery(c, &q) {
		return
	}
	offset, ok := pageOffset(c, q.PageQuery)
	if !ok {
		return
	}
	ops, err := h.exchangeService.ListOperations(c.Request.Context(), actor, domain.OperationFilter{
		Kind:     q.Kind,
		Currency: strings.ToUpper(q.Currency),
		From:     q.From,
		To:       q.To,
		Limit:    q.Limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, err, "list operations")
		return
	}
	c.JSON(http.StatusOK, listResponse(ops, q.PageQuery, offset))
}

func (h *exchangeHandler) logOperation(c *gin.Context, op *domain.ExchangeOperation) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Exchange operation recorded",
		slog.String("operation_id", op.OperationID),
		slog.String("kind", string(op.Kind)))
}
