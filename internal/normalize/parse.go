// Package normalize converts string-encoded provider values into typed records.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	numeralRe = regexp.MustCompile(`-?\d+\.?\d*`)
	yearRe    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// absentMarkers are upper-cased strings the provider uses for missing values.
var absentMarkers = map[string]bool{
	"":     true,
	"NULL": true,
	"NA":   true,
	"N/A":  true,
}

// Year bounds for every year column.
const (
	MinYear = 1900
	MaxYear = 2099
)

// ToFloat coerces a provider value into a float64.
//
// Numbers are returned as-is. Strings lose thousands separators and yield the
// last signed decimal numeral they contain, so "10 Years: 11%" is 11. The
// absent markers NULL, NA, N/A and the empty string report ok=false, as do
// strings without a numeral and non-numeric types.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		return parseNumeral(n)
	default:
		return 0, false
	}
}

func parseNumeral(s string) (float64, bool) {
	s = strings.TrimSpace(fold(s))
	s = strings.ReplaceAll(s, ",", "")
	if absentMarkers[strings.ToUpper(s)] {
		return 0, false
	}

	nums := numeralRe.FindAllString(s, -1)
	if len(nums) == 0 {
		return 0, false
	}

	f, err := strconv.ParseFloat(nums[len(nums)-1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ExtractYear returns a calendar year from a provider value.
// Integers pass through unchanged; strings are scanned for a standalone
// four-digit token starting with 19 or 20 ("Mar 2015" is 2015).
func ExtractYear(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		// JSON numbers decode as float64; only whole values are years.
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case string:
		m := yearRe.FindString(fold(n))
		if m == "" {
			return 0, false
		}
		y, err := strconv.Atoi(m)
		if err != nil {
			return 0, false
		}
		return y, true
	default:
		return 0, false
	}
}

// ExtractPeriod returns the label before the first colon of a string,
// trimmed ("10 Years: 21%" is "10 Years"). Values without a colon or with an
// empty label report ok=false.
func ExtractPeriod(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	label, _, found := strings.Cut(fold(s), ":")
	if !found {
		return "", false
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	return label, true
}

// ValidYear reports whether y fits the year columns' range.
func ValidYear(y int) bool {
	return y >= MinYear && y <= MaxYear
}

// fold maps compatibility characters such as full-width digits and
// no-break spaces to their plain forms.
func fold(s string) string {
	return norm.NFKC.String(s)
}

// textOf renders an identifier or free-text value as a string.
// Empty strings and non-scalar values report ok=false.
func textOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

func floatPtr(v any) *float64 {
	f, ok := ToFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func textPtr(v any) *string {
	s, ok := textOf(v)
	if !ok {
		return nil
	}
	return &s
}
