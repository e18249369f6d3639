// Package display formats values for terminal output.
package display

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money formats an amount in the given fiat currency with its symbol.
// Unknown currencies fall back to the amount followed by the code.
func Money(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

// Converter turns usd values into the user's main currency.
type Converter struct {
	Currency string
	// Rate is the value of one USD in Currency.
	Rate decimal.Decimal
}

// USD is the identity converter.
var USD = Converter{Currency: "USD", Rate: decimal.NewFromInt(1)}

func (c Converter) Format(usdValue decimal.Decimal) string {
	rate := c.Rate
	if rate.IsZero() {
		return Money(usdValue, "USD")
	}
	return Money(usdValue.Mul(rate), c.Currency)
}

// Amount trims an asset amount to a readable precision.
func Amount(amount decimal.Decimal, precision int32) string {
	return amount.Round(precision).String()
}
