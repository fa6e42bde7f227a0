package dto

import (
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// ReplenishmentRequest restocks a till.
type ReplenishmentRequest struct {
	FundingCurrency string               `json:"fundingCurrency" binding:"required"`
	FundingSource   domain.FundingSource `json:"fundingSource"`
	Amount          decimal.Decimal      `json:"amount" binding:"decimalgt0" swaggertype:"string"`
	TargetCurrency  string               `json:"targetCurrency" binding:"required"`
	PurchaseRate    decimal.Decimal      `json:"purchaseRate" binding:"decimalgt0" swaggertype:"string"`
	TransportFee    decimal.Decimal      `json:"transportFee" binding:"decimalgte0" swaggertype:"string"`
	HandlingFee     decimal.Decimal      `json:"handlingFee" binding:"decimalgte0" swaggertype:"string"`
	NoteExchangeFee decimal.Decimal      `json:"noteExchangeFee" binding:"decimalgte0" swaggertype:"string"`
}

func (r ReplenishmentRequest) ToInput() portssvc.ReplenishmentInput {
	return portssvc.ReplenishmentInput{
		FundingCurrency: r.FundingCurrency,
		FundingSource:   r.FundingSource,
		Amount:          r.Amount,
		TargetCurrency:  r.TargetCurrency,
		PurchaseRate:    r.PurchaseRate,
		TransportFee:    r.TransportFee,
		HandlingFee:     r.HandlingFee,
		NoteExchangeFee: r.NoteExchangeFee,
	}
}

// SaleRequest sells foreign currency. A zero todayRate uses the configured rate.
type SaleRequest struct {
	Currency   string          `json:"currency" binding:"required"`
	SoldAmount decimal.Decimal `json:"soldAmount" binding:"decimalgt0" swaggertype:"string"`
	TodayRate  decimal.Decimal `json:"todayRate" binding:"decimalgte0" swaggertype:"string"`
	Customer   string          `json:"customer"`
}

func (r SaleRequest) ToInput() portssvc.SaleInput {
	return portssvc.SaleInput{
		Currency:   r.Currency,
		SoldAmount: r.SoldAmount,
		TodayRate:  r.TodayRate,
		Customer:   r.Customer,
	}
}

// CessionRequest moves till funds out internally.
type CessionRequest struct {
	Currency    string          `json:"currency" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"decimalgt0" swaggertype:"string"`
	Beneficiary string          `json:"beneficiary"`
	Purpose     string          `json:"purpose"`
}

func (r CessionRequest) ToInput() portssvc.CessionInput {
	return portssvc.CessionInput{
		Currency:    r.Currency,
		Amount:      r.Amount,
		Beneficiary: r.Beneficiary,
		Purpose:     r.Purpose,
	}
}

// AdjustTillRequest overrides a till balance.
type AdjustTillRequest struct {
	Balance decimal.Decimal `json:"balance" binding:"decimalgte0" swaggertype:"string"`
	Note    string          `json:"note" binding:"required"`
}

// OperationQuery filters the exchange operation log.
type OperationQuery struct {
	Kind     domain.OperationKind `form:"kind"`
	Currency string               `form:"currency"`
	RangeQuery
	PageQuery
}
