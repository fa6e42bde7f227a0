package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/dto"
	"github.com/SscSPs/cashdesk_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// settlementHandler handles HTTP requests on cash settlements.
type settlementHandler struct {
	settlementService portssvc.SettlementSvcFacade
}

func newSettlementHandler(ss portssvc.SettlementSvcFacade) *settlementHandler {
	return &settlementHandler{settlementService: ss}
}

// registerSettlementRoutes registers routes related to cash settlements.
func registerSettlementRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvcFacade) {
	h := newSettlementHandler(settlementService)

	settlements := rg.Group("/settlements")
	{
		settlements.POST("", h.createSettlement)
		settlements.GET("/:id", h.getSettlement)
		settlements.POST("/:id/unloadings", h.addUnloading)
		settlements.POST("/:id/validate", h.validateSettlement)
		settlements.POST("/:id/reject", h.rejectSettlement)
	}
}

// createSettlement godoc
// @Summary Create a settlement
// @Description Totals a cashier's completed transactions for one business day
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   settlement body dto.CreateSettlementRequest true "Cashier and business date"
// @Success 201 {object} domain.CashSettlement
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already settled"
// @Security BearerAuth
// @Router /settlements [post]
func (h *settlementHandler) createSettlement(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CreateSettlementRequest
	if !bindJSON(c, &req) {
		return
	}
	businessDate, err := time.Parse(time.DateOnly, req.BusinessDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "businessDate must be YYYY-MM-DD"})
		return
	}
	settlement, err := h.settlementService.CreateSettlement(c.Request.Context(), actor, req.CashierID, businessDate)
	if err != nil {
		respondError(c, err, "create settlement")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Settlement created",
		slog.String("settlement_id", settlement.SettlementID),
		slog.String("cashier_id", settlement.CashierID))
	c.JSON(http.StatusCreated, settlement)
}

// getSettlement godoc
// @Summary Get a settlement with its unloadings
// @Tags settlements
// @Produce  json
// @Param   id path string true "Settlement ID"
// @Success 200 {object} dto.SettlementResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /settlements/{id} [get]
func (h *settlementHandler) getSettlement(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	settlement, unloadings, err := h.settlementService.GetSettlement(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve settlement")
		return
	}
	c.JSON(http.StatusOK, dto.SettlementResponse{Settlement: settlement, Unloadings: unloadings})
}

// addUnloading godoc
// @Summary Record an unloading
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   id path string true "Settlement ID"
// @Param   unloading body dto.UnloadingRequest true "Unloading"
// @Success 200 {object} domain.CashSettlement
// @Failure 400 {object} dto.ErrorResponse "Unloading exceeds the total"
// @Failure 409 {object} dto.ErrorResponse "Settlement closed"
// @Security BearerAuth
// @Router /settlements/{id}/unloadings [post]
func (h *settlementHandler) addUnloading(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.UnloadingRequest
	if !bindJSON(c, &req) {
		return
	}
	settlement, err := h.settlementService.AddUnloading(c.Request.Context(), actor, c.Param("id"), req.Amount, req.Note)
	if err != nil {
		respondError(c, err, "record unloading")
		return
	}
	c.JSON(http.StatusOK, settlement)
}

// validateSettlement godoc
// @Summary Validate a settlement
// @Description A received amount outside the tolerance needs an exception reason
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   id path string true "Settlement ID"
// @Param   validation body dto.ValidateSettlementRequest true "Received amount"
// @Success 200 {object} domain.CashSettlement
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Settlement closed"
// @Security BearerAuth
// @Router /settlements/{id}/validate [post]
func (h *settlementHandler) validateSettlement(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.ValidateSettlementRequest
	if !bindJSON(c, &req) {
		return
	}
	settlement, err := h.settlementService.ValidateSettlement(c.Request.Context(), actor, c.Param("id"), req.ReceivedAmount, req.ExceptionReason)
	if err != nil {
		respondError(c, err, "validate settlement")
		return
	}
	c.JSON(http.StatusOK, settlement)
}

// rejectSettlement godoc
// @Summary Reject a settlement
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   id path string true "Settlement ID"
// @Param   rejection body dto.ReasonRequest true "Reason"
// @Success 200 {object} domain.CashSettlement
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Settlement closed"
// @Security BearerAuth
// @Router /settlements/{id}/reject [post]
func (h *settlementHandler) rejectSettlement(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindJSON(c, &req) {
		return
	}
	settlement, err := h.settlementService.RejectSettlement(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err, "reject settlement")
		return
	}
	c.JSON(http.StatusOK, settlement)
}
