package service

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pizzastore/api/internal/database"
	"github.com/pizzastore/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Column limits: catalog and item prices are NUMERIC(10,2), order totals
// NUMERIC(12,2).
var (
	MaxPrice      = decimal.RequireFromString("99999999.99")
	MaxOrderTotal = decimal.RequireFromString("9999999999.99")
)

// NormalizeSize maps a requested size onto a price tier. Only the exact
// values "medium" and "large" select those tiers; anything else is regular.
func NormalizeSize(size string) string {
	switch size {
	case enum.SizeMedium, enum.SizeLarge:
		return size
	}
	return enum.SizeRegular
}

// BasePrice returns the pizza's catalog price for an already normalized size.
func BasePrice(p database.GetPizzaForOrderRow, size string) decimal.Decimal {
	switch size {
	case enum.SizeMedium:
		return NumericToDecimal(p.PriceMedium)
	case enum.SizeLarge:
		return NumericToDecimal(p.PriceLarge)
	}
	return NumericToDecimal(p.PriceRegular)
}

// UnitPrice is base + Σ toppings, rounded to 2 places.
func UnitPrice(base decimal.Decimal, toppingPrices []decimal.Decimal) decimal.Decimal {
	return base.Add(decimal.Sum(decimal.Zero, toppingPrices...)).Round(2)
}

// LineTotal is unit price × quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int32) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt32(quantity))
}

// NumericToDecimal converts a NUMERIC column value. NULL or unparsable values
// count as zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	s, ok := val.(string)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToNumeric converts money to a NUMERIC parameter with 2 decimals.
func DecimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("convert %s to numeric: %w", d.String(), err)
	}
	return n, nil
}
