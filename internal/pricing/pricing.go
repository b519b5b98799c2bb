package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
)

// MarginKind selects which configured margin multiplies the purchase cost.
type MarginKind int

const (
	MarginDirect MarginKind = iota
	MarginLocation
)

// LineAmounts is the computed money for one devis line. Values are exact
// (unrounded) until a caller crosses a presentation or snapshot boundary.
type LineAmounts struct {
	UnitPriceHT float64
	Quantity    float64
	VatRate     float64
	HT          float64
	TVA         float64
	TTC         float64
}

// Totals aggregates line amounts, with a recap grouped by VAT rate.
type Totals struct {
	HT     float64
	TVA    float64
	TTC    float64
	ByRate map[float64]RateTotals
}

// RateTotals is the aggregate for one VAT rate within a devis.
type RateTotals struct {
	HT  float64
	TVA float64
	TTC float64
}

// ResolveSellPrice derives the catalog selling price from the purchase cost
// and the configured margin multiplier.
func ResolveSellPrice(purchaseCostHT, marginRate float64) (float64, error) {
	if purchaseCostHT < 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "purchase cost must not be negative")
	}
	return purchaseCostHT * marginRate, nil
}

// PriceLine computes HT, TVA, and TTC for one line.
func PriceLine(unitPriceHT, quantity, vatRate float64) (LineAmounts, error) {
	if quantity <= 0 {
		return LineAmounts{}, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	if unitPriceHT < 0 {
		return LineAmounts{}, apperrors.New(apperrors.CodeValidation, "unit price must not be negative")
	}
	if vatRate < 0 {
		return LineAmounts{}, apperrors.New(apperrors.CodeValidation, "vat rate must not be negative")
	}

	ht := unitPriceHT * quantity
	tva := ht * vatRate
	return LineAmounts{
		UnitPriceHT: unitPriceHT,
		Quantity:    quantity,
		VatRate:     vatRate,
		HT:          ht,
		TVA:         tva,
		TTC:         ht + tva,
	}, nil
}

// Aggregate sums line amounts. The result is independent of line order.
func Aggregate(lines []LineAmounts) Totals {
	totals := Totals{ByRate: make(map[float64]RateTotals)}
	for _, line := range lines {
		totals.HT += line.HT
		totals.TVA += line.TVA
		totals.TTC += line.TTC

		byRate := totals.ByRate[line.VatRate]
		byRate.HT += line.HT
		byRate.TVA += line.TVA
		byRate.TTC += line.TTC
		totals.ByRate[line.VatRate] = byRate
	}
	return totals
}

// Rates returns the distinct VAT rates present in the totals, ascending.
// Used for stable tax-recap rendering.
func (t Totals) Rates() []float64 {
	rates := make([]float64, 0, len(t.ByRate))
	for rate := range t.ByRate {
		rates = append(rates, rate)
	}
	sort.Float64s(rates)
	return rates
}

// ApplyDiscount subtracts an absolute remise from a TTC amount, floored at
// zero so a discount can never produce a negative payable.
func ApplyDiscount(totalTTC, remise float64) float64 {
	result := totalTTC - remise
	if result < 0 {
		return 0
	}
	return result
}

// Round2 rounds a currency amount to 2 decimal places. Only presentation and
// snapshot boundaries call this; intermediate math stays unrounded.
func Round2(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}
