package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// RatePrecision is the number of decimals kept on booked rates and quantities.
const RatePrecision = 2

// ErrNoNetQuantity is returned when ancillary expenses swallow the whole acquired quantity.
var ErrNoNetQuantity = errors.New("ancillary expenses exceed acquired quantity")

// Acquisition is the outcome of a replenishment calculation.
type Acquisition struct {
	Acquired      decimal.Decimal // amount / purchaseRate
	Expenses      decimal.Decimal // transport + handling + note exchange, in target units
	Net           decimal.Decimal // acquired - expenses, credited to the till
	EffectiveRate decimal.Decimal
}

// ComputeAcquisition amortizes the ancillary expenses over the net quantity received:
// effective = purchaseRate + expenses / max(0, acquired - expenses), rounded to two decimals.
func ComputeAcquisition(amount, purchaseRate decimal.Decimal, expenses ...decimal.Decimal) (Acquisition, error) {
	if !purchaseRate.IsPositive() {
		return Acquisition{}, errors.New("purchase rate must be positive")
	}
	total := decimal.Zero
	for _, e := range expenses {
		if e.IsNegative() {
			return Acquisition{}, errors.New("ancillary expenses cannot be negative")
		}
		total = total.Add(e)
	}
	acquired := amount.Div(purchaseRate).Round(RatePrecision)
	net := decimal.Max(decimal.Zero, acquired.Sub(total))
	if !net.IsPositive() {
		return Acquisition{}, ErrNoNetQuantity
	}
	effective := purchaseRate.Add(total.Div(net)).Round(RatePrecision)
	return Acquisition{
		Acquired:      acquired,
		Expenses:      total,
		Net:           net,
		EffectiveRate: effective,
	}, nil
}

// SaleCostBasis returns the rate a sale is measured against. Without a prior
// replenishment on record the sale rate itself is the cost basis.
func SaleCostBasis(lastAcquisitionRate, todayRate decimal.Decimal) decimal.Decimal {
	if lastAcquisitionRate.IsPositive() {
		return lastAcquisitionRate
	}
	return todayRate
}

// SaleCommission is max(0, sold*today - sold*cost).
func SaleCommission(sold, todayRate, costRate decimal.Decimal) decimal.Decimal {
	margin := sold.Mul(todayRate).Sub(sold.Mul(costRate))
	return decimal.Max(decimal.Zero, margin).Round(RatePrecision)
}

// TransferCommission is the local amount received minus the cost of paying out the
// real amount abroad. The result may be negative.
func TransferCommission(receivedLocal, realAmount, fxRate decimal.Decimal) decimal.Decimal {
	return receivedLocal.Sub(realAmount.Mul(fxRate)).Round(RatePrecision)
}

// TransferCommissionAccepted decides a transfer validation: the commission must be
// strictly positive and reach the configured floor.
func TransferCommissionAccepted(commission, minimum decimal.Decimal) bool {
	return commission.IsPositive() && commission.GreaterThanOrEqual(minimum)
}

// SettlementFinal is total minus unloading.
func SettlementFinal(total, unloading decimal.Decimal) decimal.Decimal {
	return total.Sub(unloading)
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance.Abs())
}
