package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	currencySymbol    = "R$"
	displayDateLayout = "02/01/2006"
	isoDateLayout     = "2006-01-02"
)

var (
	ErrInvalidCurrency = errors.New("invalid currency value")
	ErrInvalidDate     = errors.New("invalid date")
)

// plainDecimal bounds amounts to 15 integer and 10 fraction digits. Exponent
// notation never matches, so "1e50000000" cannot expand into a huge number.
var plainDecimal = regexp.MustCompile(`^\d{1,15}(\.\d{1,10})?$`)

// CurrencyBRL renders v as Brazilian Real, e.g. "R$ 1.234,50".
func CurrencyBRL(v decimal.Decimal) string {
	fixed := v.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	sign := ""
	if v.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + currencySymbol + " " + groupThousands(intPart) + "," + fracPart
}

// ParseCurrencyBRL is the inverse of CurrencyBRL. It also accepts values
// without the symbol or thousands separators ("1234,5").
func ParseCurrencyBRL(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))

	negative := false
	if rest, ok := strings.CutPrefix(cleaned, "-"); ok {
		negative = true
		cleaned = strings.TrimSpace(rest)
	}
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, currencySymbol))
	if rest, ok := strings.CutPrefix(cleaned, "-"); ok && !negative {
		negative = true
		cleaned = strings.TrimSpace(rest)
	}

	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if !plainDecimal.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	if negative {
		value = value.Neg()
	}
	return value, nil
}

// ParseAmount parses a plain decimal as sent by forms and the backend
// ("149.90", "-25"). It shares the digit bounds of ParseCurrencyBRL.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	negative := false
	if rest, ok := strings.CutPrefix(cleaned, "-"); ok {
		negative = true
		cleaned = rest
	}
	if !plainDecimal.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	if negative {
		value = value.Neg()
	}
	return value, nil
}

func DateDisplay(t time.Time) string {
	return t.Format(displayDateLayout)
}

// DateISO is the wire format the rental backend expects.
func DateISO(t time.Time) string {
	return t.Format(isoDateLayout)
}

func ParseDateISO(s string) (time.Time, error) {
	return parseDate(isoDateLayout, s)
}

func ParseDateDisplay(s string) (time.Time, error) {
	return parseDate(displayDateLayout, s)
}

func parseDate(layout string, s string) (time.Time, error) {
	parsed, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return parsed, nil
}

// Mileage renders an odometer reading the way the car pages show it.
func Mileage(km int) string {
	sign := ""
	if km < 0 {
		sign = "-"
		km = -km
	}
	return sign + groupThousands(strconv.Itoa(km)) + " km"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
