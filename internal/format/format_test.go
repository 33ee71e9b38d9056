package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencyBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.5", "R$ 1.234,50"},
		{"0", "R$ 0,00"},
		{"0.005", "R$ 0,01"},
		{"999.999", "R$ 1.000,00"},
		{"1234567.89", "R$ 1.234.567,89"},
		{"100", "R$ 100,00"},
		{"-25.1", "-R$ 25,10"},
		{"-0.001", "R$ 0,00"},
	}
	for _, tc := range tests {
		assert.Equalf(t, tc.want, CurrencyBRL(decimal.RequireFromString(tc.in)), "CurrencyBRL(%s)", tc.in)
	}
}

func TestParseCurrencyBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"R$ 1.234,50", "1234.5"},
		{"R$1.234,50", "1234.5"},
		{"R$\u00a01.234,50", "1234.5"},
		{"1234,5", "1234.5"},
		{"  R$ 0,00 ", "0"},
		{"-R$ 25,10", "-25.1"},
		{"R$ -25,10", "-25.1"},
		{"1.234.567,89", "1234567.89"},
	}
	for _, tc := range tests {
		got, err := ParseCurrencyBRL(tc.in)
		require.NoErrorf(t, err, "ParseCurrencyBRL(%q)", tc.in)
		assert.Truef(t, got.Equal(decimal.RequireFromString(tc.want)), "ParseCurrencyBRL(%q): expected %s, got %s", tc.in, tc.want, got)
	}
}

func TestParseCurrencyBRLRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "R$", "abc", "R$ 1,2,3", "1e5", "R$ --1,00", "12,", "R$ 1.000.000.000.000.000,00"} {
		_, err := ParseCurrencyBRL(in)
		assert.ErrorIsf(t, err, ErrInvalidCurrency, "ParseCurrencyBRL(%q)", in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"149.90":          "149.9",
		" 600 ":           "600",
		"-25":             "-25",
		"0.001":           "0.001",
		"999999999999999": "999999999999999",
		"1.0000000001":    "1.0000000001",
	}
	for in, want := range tests {
		got, err := ParseAmount(in)
		require.NoErrorf(t, err, "ParseAmount(%q)", in)
		assert.Truef(t, got.Equal(decimal.RequireFromString(want)), "ParseAmount(%q): expected %s, got %s", in, want, got)
	}
}

func TestParseAmountRejectsExponentAndOversizedValues(t *testing.T) {
	for _, in := range []string{"", "1e50000000", "1E5", "2.5e+3", "1234567890123456", "0.12345678901", ".5", "5.", "+5", "--5", "R$ 5,00", "NaN", "Infinity"} {
		_, err := ParseAmount(in)
		assert.ErrorIsf(t, err, ErrInvalidCurrency, "ParseAmount(%q)", in)
	}
}

func TestCurrencyRoundTrip(t *testing.T) {
	for _, in := range []string{"1234.5", "0.99", "1000000", "-42.42"} {
		value := decimal.RequireFromString(in)
		parsed, err := ParseCurrencyBRL(CurrencyBRL(value))
		require.NoErrorf(t, err, "round trip %s", in)
		assert.Truef(t, parsed.Equal(value), "round trip %s: got %s", in, parsed)
	}
}

func TestDates(t *testing.T) {
	d := time.Date(2024, time.March, 7, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "07/03/2024", DateDisplay(d))
	assert.Equal(t, "2024-03-07", DateISO(d))

	parsed, err := ParseDateDisplay("07/03/2024")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", DateISO(parsed))

	parsed, err = ParseDateISO(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "29/02/2024", DateDisplay(parsed))
}

func TestParseDateRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "2023-02-29", "07/03/2024", "2024-13-01"} {
		_, err := ParseDateISO(in)
		assert.ErrorIsf(t, err, ErrInvalidDate, "ParseDateISO(%q)", in)
	}

	_, err := ParseDateDisplay("2024-03-07")
	assert.ErrorIs(t, err, ErrInvalidDate, "ISO input to the display parser")
}

func TestMileage(t *testing.T) {
	tests := map[int]string{
		0:       "0 km",
		999:     "999 km",
		12345:   "12.345 km",
		1000000: "1.000.000 km",
	}
	for in, want := range tests {
		assert.Equalf(t, want, Mileage(in), "Mileage(%d)", in)
	}
}
