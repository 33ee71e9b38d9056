package payload

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"locadora-api/internal/format"
)

var ErrMalformedPayload = errors.New("malformed payload")

// object is a decoded JSON object with lower-cased keys. Accessors take the
// canonical field name first and legacy aliases after it; the first present,
// non-empty key wins.
type object map[string]any

func decodeObject(raw []byte) (object, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var decoded map[string]any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err.Error())
	}
	if decoded == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}

	obj := make(object, len(decoded))
	sources := make(map[string]string, len(decoded))
	for key, value := range decoded {
		normalized := strings.ToLower(strings.TrimSpace(key))
		if current, exists := sources[normalized]; exists && !preferKey(key, current, normalized) {
			continue
		}
		obj[normalized] = value
		sources[normalized] = key
	}
	return obj, nil
}

// preferKey settles keys that differ only by case or padding: the exact
// lower-case spelling wins, then the lexically smallest key.
func preferKey(candidate string, current string, normalized string) bool {
	switch {
	case current == normalized:
		return false
	case candidate == normalized:
		return true
	default:
		return candidate < current
	}
}

func (o object) lookup(keys ...string) (any, string, bool) {
	for _, key := range keys {
		value, ok := o[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return value, key, true
	}
	return nil, "", false
}

func (o object) str(keys ...string) string {
	value, _, ok := o.lookup(keys...)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (o object) integer(keys ...string) (int64, bool, error) {
	value, key, ok := o.lookup(keys...)
	if !ok {
		return 0, false, nil
	}

	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return 0, true, fieldError(key, "must be an integer")
	}

	parsed, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// Some backend copies serialize integer columns as floats ("1200.0").
		asDecimal, decErr := format.ParseAmount(text)
		if decErr != nil || !asDecimal.Equal(asDecimal.Truncate(0)) {
			return 0, true, fieldError(key, "must be an integer")
		}
		parsed = asDecimal.IntPart()
	}
	return parsed, true, nil
}

func (o object) money(keys ...string) (decimal.Decimal, bool, error) {
	value, key, ok := o.lookup(keys...)
	if !ok {
		return decimal.Zero, false, nil
	}

	switch v := value.(type) {
	case json.Number:
		parsed, err := format.ParseAmount(v.String())
		if err != nil {
			return decimal.Zero, true, fieldError(key, "must be a decimal")
		}
		return parsed, true, nil
	case string:
		if parsed, err := format.ParseAmount(v); err == nil {
			return parsed, true, nil
		}
		parsed, err := format.ParseCurrencyBRL(v)
		if err != nil {
			return decimal.Zero, true, fieldError(key, "must be a decimal")
		}
		return parsed, true, nil
	default:
		return decimal.Zero, true, fieldError(key, "must be a decimal")
	}
}

// date accepts ISO dates, ISO timestamps (the date part is kept) and
// DD/MM/YYYY display dates.
func (o object) date(keys ...string) (time.Time, bool, error) {
	value, key, ok := o.lookup(keys...)
	if !ok {
		return time.Time{}, false, nil
	}
	text, isString := value.(string)
	if !isString {
		return time.Time{}, true, fieldError(key, "must be a date string")
	}
	text = strings.TrimSpace(text)

	if parsed, err := format.ParseDateDisplay(text); err == nil {
		return parsed, true, nil
	}
	if len(text) > len("2006-01-02") {
		text = text[:len("2006-01-02")]
	}
	parsed, err := format.ParseDateISO(text)
	if err != nil {
		return time.Time{}, true, fieldError(key, "must be a date")
	}
	return parsed, true, nil
}

func (o object) boolean(fallback bool, keys ...string) (bool, error) {
	value, key, ok := o.lookup(keys...)
	if !ok {
		return fallback, nil
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fallback, fieldError(key, "must be a boolean")
		}
		return parsed, nil
	default:
		return fallback, fieldError(key, "must be a boolean")
	}
}

func fieldError(key string, message string) error {
	return fmt.Errorf("%w: field %q %s", ErrMalformedPayload, key, message)
}
