// Package pricing holds the pure calculations behind catalog prices:
// markup-based sale pricing and the weighted-average cost update applied
// when a purchase is registered.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidPurchase = errors.New("purchase quantity and unit price must be positive")

var oneHundred = decimal.NewFromInt(100)

// SalePrice derives the sale price from cost and a profit margin
// expressed as a percentage of the sale price:
//
//	price = cost / (1 - margin/100)
//
// rounded to 2 decimal places. A margin of 100% or more has no defined
// markup; the cost is returned unchanged in that case.
func SalePrice(cost, marginPercent decimal.Decimal) decimal.Decimal {
	if marginPercent.GreaterThanOrEqual(oneHundred) {
		return cost
	}
	divisor := decimal.NewFromInt(1).Sub(marginPercent.Div(oneHundred))
	return cost.Div(divisor).Round(2)
}

// ApplyPurchase folds a restock purchase into the current inventory
// position, returning the new stock count and the new quantity-weighted
// average unit cost rounded to 2 decimal places. There is no lot-level
// tracking; the catalog holds one average cost per product.
func ApplyPurchase(currentStock int, currentCost decimal.Decimal, purchasedQty int, purchasedUnitPrice decimal.Decimal) (int, decimal.Decimal, error) {
	if purchasedQty <= 0 || !purchasedUnitPrice.IsPositive() {
		return 0, decimal.Decimal{}, ErrInvalidPurchase
	}

	newStock := currentStock + purchasedQty
	held := decimal.NewFromInt(int64(currentStock)).Mul(currentCost)
	bought := decimal.NewFromInt(int64(purchasedQty)).Mul(purchasedUnitPrice)
	newCost := held.Add(bought).Div(decimal.NewFromInt(int64(newStock))).Round(2)

	return newStock, newCost, nil
}

// OrderTotals computes an order's subtotal from its line amounts and the
// total after a percentage discount, both rounded to 2 decimal places.
func OrderTotals(lineAmounts []decimal.Decimal, discountPercent decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, amount := range lineAmounts {
		subtotal = subtotal.Add(amount)
	}
	subtotal = subtotal.Round(2)
	discount := subtotal.Mul(discountPercent.Div(oneHundred))
	total = subtotal.Sub(discount).Round(2)
	return subtotal, total
}
