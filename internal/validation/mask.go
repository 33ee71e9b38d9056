package validation

import "strings"

// Masks operate on the digit-only projection of their input and are applied
// progressively, so partially typed values come back partially formatted.

var (
	cpfGroups        = []int{3, 3, 3, 2}
	cpfSeparators    = []string{".", ".", "-"}
	cnpjGroups       = []int{2, 3, 3, 4, 2}
	cnpjSeparators   = []string{".", ".", "/", "-"}
	postalGroups     = []int{5, 3}
	postalSeparators = []string{"-"}
)

func MaskCPF(raw string) string {
	return applyMask(truncate(NormalizeDigits(raw), cpfLength), cpfGroups, cpfSeparators)
}

func MaskCNPJ(raw string) string {
	return applyMask(truncate(NormalizeDigits(raw), cnpjLength), cnpjGroups, cnpjSeparators)
}

// MaskTaxID picks the CNPJ mask once the input is longer than a CPF.
func MaskTaxID(raw string) string {
	digits := NormalizeDigits(raw)
	if len(digits) > cpfLength {
		return MaskCNPJ(digits)
	}
	return MaskCPF(digits)
}

// MaskPhone formats complete landline or mobile numbers and returns anything
// else as bare digits.
func MaskPhone(raw string) string {
	digits := NormalizeDigits(raw)
	switch len(digits) {
	case mobileLength:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	case landlineLength:
		return "(" + digits[:2] + ") " + digits[2:6] + "-" + digits[6:]
	default:
		return digits
	}
}

func MaskPostalCode(raw string) string {
	return applyMask(truncate(NormalizeDigits(raw), postalCodeLength), postalGroups, postalSeparators)
}

func applyMask(digits string, groups []int, separators []string) string {
	var b strings.Builder
	b.Grow(len(digits) + len(separators))

	pos := 0
	for i, size := range groups {
		if pos >= len(digits) {
			break
		}
		if i > 0 {
			b.WriteString(separators[i-1])
		}
		end := min(pos+size, len(digits))
		b.WriteString(digits[pos:end])
		pos = end
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
