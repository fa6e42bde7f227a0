package handlers

import (
	"context"
	"net/http"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/dto"
	"github.com/gin-gonic/gin"
)

type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

func newExpenseHandler(es portssvc.ExpenseSvcFacade) *expenseHandler {
	return &expenseHandler{expenseService: es}
}

func registerExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade) {
	h := newExpenseHandler(expenseService)

	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.submitExpense)
		expenses.GET("", h.listExpenses)
		expenses.GET("/:id", h.getExpense)
		expenses.POST("/:id/control", h.controlDecision)
		expenses.POST("/:id/executive", h.executiveDecision)
	}
}

// submitExpense godoc
// @Summary Submit an expense request
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   expense body dto.SubmitExpenseRequest true "Expense"
// @Success 201 {object} domain.Expense
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /expenses [post]
func (h *expenseHandler) submitExpense(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.SubmitExpenseRequest
	if !bindJSON(c, &req) {
		return
	}
	expense, err := h.expenseService.SubmitExpense(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		respondError(c, err, "submit expense")
		return
	}
	c.JSON(http.StatusCreated, expense)
}

// listExpenses godoc
// @Summary List expenses
// @Tags expenses
// @Produce  json
// @Param   status query string false "Stage"
// @Param   agency query string false "Agency"
// @Param   limit query int false "Page size (default 100, max 1000)"
// @Param   pageToken query string false "Token of the next page"
// @Success 200 {object} dto.ListResponse[domain.Expense]
// @Security BearerAuth
// @Router /expenses [get]
func (h *expenseHandler) listExpenses(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q dto.ExpenseQuery
	if !bindQuery(c, &q) {
		return
	}
	offset, ok := pageOffset(c, q.PageQuery)
	if !ok {
		return
	}
	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), actor, domain.ExpenseFilter{
		Status: q.Status,
		Agency: q.Agency,
		Limit:  q.Limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err, "list expenses")
		return
	}
	c.JSON(http.StatusOK, listResponse(expenses, q.PageQuery, offset))
}

// getExpense godoc
// @Summary Get an expense
// @Tags expenses
// @Produce  json
// @Param   id path string true "Expense ID"
// @Success 200 {object} domain.Expense
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	expense, err := h.expenseService.GetExpense(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve expense")
		return
	}
	c.JSON(http.StatusOK, expense)
}

// controlDecision godoc
// @Summary Financial control decision
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   id path string true "Expense ID"
// @Param   decision body dto.ExpenseDecisionRequest true "Decision"
// @Success 200 {object} domain.Expense
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Stage already decided"
// @Security BearerAuth
// @Router /expenses/{id}/control [post]
func (h *expenseHandler) controlDecision(c *gin.Context) {
	h.decide(c, "record control decision", h.expenseService.ApproveExpenseByControl)
}

// executiveDecision godoc
// @Summary Executive decision
// @Description Approval debits the vault, or the exchange surplus pool when flagged
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   id path string true "Expense ID"
// @Param   decision body dto.ExpenseDecisionRequest true "Decision"
// @Success 200 {object} domain.Expense
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Control stage pending"
// @Failure 422 {object} dto.ErrorResponse "Insufficient funds"
// @Security BearerAuth
// @Router /expenses/{id}/executive [post]
func (h *expenseHandler) executiveDecision(c *gin.Context) {
	h.decide(c, "record executive decision", h.expenseService.ApproveExpenseByExecutive)
}

func (h *expenseHandler) decide(c *gin.Context, action string, stage func(ctx context.Context, actor domain.Actor, expenseID string, decision portssvc.ExpenseDecision) (*domain.Expense, error)) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.ExpenseDecisionRequest
	if !bindJSON(c, &req) {
		return
	}
	expense, err := stage(c.Request.Context(), actor, c.Param("id"), req.ToDecision())
	if err != nil {
		respondError(c, err, action)
		return
	}
	c.JSON(http.StatusOK, expense)
}
