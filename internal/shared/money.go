package shared

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// VATRate is the value-added tax applied to supplier catalogue prices.
	VATRate = 0.19
	// SaleMarkup multiplies total production cost into a sale price (40% margin).
	SaleMarkup = 1.4
)

var vatFactor = decimal.NewFromFloat(1 + VATRate)

// PriceWithVAT returns price × (1 + VATRate), multiplied in decimal so 10.55 gives 12.5545.
func PriceWithVAT(price float64) float64 {
	return decimal.NewFromFloat(Num(price)).Mul(vatFactor).InexactFloat64()
}

// SalePrice applies the fixed markup to a total cost.
func SalePrice(totalCost float64) float64 {
	return Num(totalCost) * SaleMarkup
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(Num(v)).Round(2).InexactFloat64()
}

// Num turns NaN and ±Inf into 0 so they never leak into arithmetic.
func Num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
