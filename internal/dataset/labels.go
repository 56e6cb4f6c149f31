package dataset

import (
	"math"
	"strconv"
	"strings"
)

// missingTokens are the cell values treated as missing, following the
// defaults of common dataframe CSV readers.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"-nan": true,
	"null": true,
	"NULL": true,
	"None": true,
	"<NA>": true,
}

// IsMissing reports whether a raw CSV cell counts as a missing value.
func IsMissing(cell string) bool {
	return missingTokens[strings.TrimSpace(cell)]
}

// CanonicalLabel normalises a categorical value so that numeric and string
// encodings of the same class compare equal: "1", "1.0" and " 1 " all
// become "1". Non-numeric values are only trimmed.
func CanonicalLabel(v string) string {
	v = strings.TrimSpace(v)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return v
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseWeek parses a 1-based week-of-year cell. Integral float forms such
// as "12.0" are accepted.
func ParseWeek(v string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	w := int(f)
	if w < 1 || w > 53 {
		return 0, false
	}
	return w, true
}
