package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	cpfLength        = 11
	cnpjLength       = 14
	postalCodeLength = 8
	landlineLength   = 10
	mobileLength     = 11
)

var nonDigits = regexp.MustCompile(`\D`)

var (
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

type TaxIDKind string

const (
	KindUnknown    TaxIDKind = "UNKNOWN"
	KindIndividual TaxIDKind = "INDIVIDUAL"
	KindCorporate  TaxIDKind = "CORPORATE"
)

// TaxID is a CPF or CNPJ as typed by the user together with its digit-only form.
type TaxID struct {
	Raw    string
	Digits string
	Kind   TaxIDKind
}

func ParseTaxID(raw string) TaxID {
	digits := NormalizeDigits(raw)
	return TaxID{Raw: raw, Digits: digits, Kind: kindForLength(len(digits))}
}

// Valid reports whether the check digits match for the detected kind.
func (t TaxID) Valid() bool {
	switch t.Kind {
	case KindIndividual:
		return IsValidCPF(t.Digits)
	case KindCorporate:
		return IsValidCNPJ(t.Digits)
	default:
		return false
	}
}

func (t TaxID) Masked() string {
	return MaskTaxID(t.Digits)
}

func kindForLength(n int) TaxIDKind {
	switch n {
	case cpfLength:
		return KindIndividual
	case cnpjLength:
		return KindCorporate
	default:
		return KindUnknown
	}
}

func NormalizeDigits(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

func IsValidCPF(digits string) bool {
	if len(digits) != cpfLength || !onlyDigits(digits) || allSameDigit(digits) {
		return false
	}

	first := checkDigit(weightedSum(digits[:9], descendingWeights(10, 9)))
	if first != digitAt(digits, 9) {
		return false
	}
	second := checkDigit(weightedSum(digits[:10], descendingWeights(11, 10)))
	return second == digitAt(digits, 10)
}

func IsValidCNPJ(digits string) bool {
	if len(digits) != cnpjLength || !onlyDigits(digits) || allSameDigit(digits) {
		return false
	}

	first := checkDigit(weightedSum(digits[:12], cnpjFirstWeights))
	if first != digitAt(digits, 12) {
		return false
	}
	second := checkDigit(weightedSum(digits[:13], cnpjSecondWeights))
	return second == digitAt(digits, 13)
}

// ValidateTaxID checks raw against the document type the user selected.
// KindUnknown accepts either a valid CPF or a valid CNPJ.
func ValidateTaxID(raw string, kind TaxIDKind) bool {
	digits := NormalizeDigits(raw)
	switch kind {
	case KindIndividual:
		return IsValidCPF(digits)
	case KindCorporate:
		return IsValidCNPJ(digits)
	default:
		return ParseTaxID(digits).Valid()
	}
}

func IsValidPhone(raw string) bool {
	n := len(NormalizeDigits(raw))
	return n == landlineLength || n == mobileLength
}

func IsValidPostalCode(raw string) bool {
	return len(NormalizeDigits(raw)) == postalCodeLength
}

func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// CPFCheckDigits returns the two check digits for a 9-digit CPF base.
func CPFCheckDigits(base string) (string, bool) {
	if len(base) != 9 || !onlyDigits(base) {
		return "", false
	}
	first := checkDigit(weightedSum(base, descendingWeights(10, 9)))
	withFirst := base + string(rune('0'+first))
	second := checkDigit(weightedSum(withFirst, descendingWeights(11, 10)))
	return string([]rune{rune('0' + first), rune('0' + second)}), true
}

// CNPJCheckDigits returns the two check digits for a 12-digit CNPJ base.
func CNPJCheckDigits(base string) (string, bool) {
	if len(base) != 12 || !onlyDigits(base) {
		return "", false
	}
	first := checkDigit(weightedSum(base, cnpjFirstWeights))
	withFirst := base + string(rune('0'+first))
	second := checkDigit(weightedSum(withFirst, cnpjSecondWeights))
	return string([]rune{rune('0' + first), rune('0' + second)}), true
}

func checkDigit(sum int) int {
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

func weightedSum(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digitAt(digits, i) * w
	}
	return sum
}

func descendingWeights(from int, count int) []int {
	weights := make([]int, count)
	for i := range weights {
		weights[i] = from - i
	}
	return weights
}

func digitAt(s string, i int) int {
	return int(s[i] - '0')
}

func onlyDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
