package validation

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^0-9A-Z]`)
	legacyPlate     = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)
	mercosulPlate   = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`)
)

type PlateFormat string

const (
	PlateInvalid  PlateFormat = ""
	PlateLegacy   PlateFormat = "LEGACY"
	PlateMercosul PlateFormat = "MERCOSUL"
)

// NormalizePlate upper-cases a license plate and drops separators, so
// "abc-1d23" becomes "ABC1D23".
func NormalizePlate(raw string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
}

func DetectPlateFormat(raw string) PlateFormat {
	plate := NormalizePlate(raw)
	switch {
	case legacyPlate.MatchString(plate):
		return PlateLegacy
	case mercosulPlate.MatchString(plate):
		return PlateMercosul
	default:
		return PlateInvalid
	}
}

func IsValidPlate(raw string) bool {
	return DetectPlateFormat(raw) != PlateInvalid
}
