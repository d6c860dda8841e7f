package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUSDRoundsUp(t *testing.T) {
	cases := map[string]string{
		"0.2002":   "0.21",
		"0.196196": "0.20",
		"1":        "1.00",
		"0":        "0.00",
		"0.001":    "0.01",
	}

	for in, want := range cases {
		assert.Equal(t, want, FormatUSD(decimal.RequireFromString(in)), in)
	}
}

func TestBTCUsesAbsoluteValue(t *testing.T) {
	assert.Equal(t, "0.2003", FormatBTC(decimal.RequireFromString("-0.20021")))
	assert.Equal(t, "0.1000", FormatBTC(decimal.RequireFromString("0.1")))
}

func TestToUSD(t *testing.T) {
	got := ToUSD(decimal.RequireFromString("0.2002"), decimal.RequireFromString("350.5"))
	assert.Equal(t, "70.18", got.StringFixed(2))
}
