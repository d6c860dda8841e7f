// Package money holds the rounding rules used for payouts and display amounts.
package money

import "github.com/shopspring/decimal"

// Decimal places for each currency.
const (
	USDPlaces = 2
	BTCPlaces = 4
)

// USD rounds toward positive infinity at cent precision.
func USD(d decimal.Decimal) decimal.Decimal {
	return d.RoundCeil(USDPlaces)
}

// BTC rounds toward positive infinity at four decimal places.
func BTC(d decimal.Decimal) decimal.Decimal {
	return d.RoundCeil(BTCPlaces)
}

// FormatUSD renders a USD amount with exactly two decimal places.
func FormatUSD(d decimal.Decimal) string {
	return USD(d).StringFixed(USDPlaces)
}

// FormatBTC renders the absolute BTC amount with four decimal places.
func FormatBTC(d decimal.Decimal) string {
	return BTC(d.Abs()).StringFixed(BTCPlaces)
}

// ToUSD converts a BTC amount using the given BTC to USD rate.
func ToUSD(btc, rate decimal.Decimal) decimal.Decimal {
	return USD(btc.Mul(rate))
}
