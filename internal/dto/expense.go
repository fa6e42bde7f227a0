package dto

import (
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// SubmitExpenseRequest opens an expense request.
type SubmitExpenseRequest struct {
	Description       string          `json:"description" binding:"required"`
	Amount            decimal.Decimal `json:"amount" binding:"decimalgt0" swaggertype:"string"`
	Category          string          `json:"category"`
	DeductFromSurplus bool            `json:"deductFromSurplus"`
	SurplusCashierID  string          `json:"surplusCashierID"`
}

func (r SubmitExpenseRequest) ToInput() portssvc.SubmitExpenseInput {
	return portssvc.SubmitExpenseInput{
		Description:       r.Description,
		Amount:            r.Amount,
		Category:          r.Category,
		DeductFromSurplus: r.DeductFromSurplus,
		SurplusCashierID:  r.SurplusCashierID,
	}
}

// ExpenseDecisionRequest is the verdict of one approval stage.
type ExpenseDecisionRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

func (r ExpenseDecisionRequest) ToDecision() portssvc.ExpenseDecision {
	return portssvc.ExpenseDecision{Approve: r.Approve, Reason: r.Reason}
}

// ExpenseQuery filters expense listings.
type ExpenseQuery struct {
	Status domain.ExpenseStatus `form:"status"`
	Agency string               `form:"agency"`
	PageQuery
}
