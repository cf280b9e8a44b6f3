package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// TriState is a boolean that may be unknown.
type TriState int

const (
	TriUnknown TriState = iota
	TriTrue
	TriFalse
)

// Bool collapses unknown to false.
func (t TriState) Bool() bool { return t == TriTrue }

// Label renders the value for categorical boolean columns.
func (t TriState) Label() string {
	switch t {
	case TriTrue:
		return "Yes"
	case TriFalse:
		return "No"
	default:
		return Unknown
	}
}

// ParseTriState reads TRUE/FALSE, YES/NO, Y/N, T/F and 1/0 in any case.
func ParseTriState(s string) TriState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE", "T", "YES", "Y", "1", "1.0":
		return TriTrue
	case "FALSE", "F", "NO", "N", "0", "0.0":
		return TriFalse
	default:
		return TriUnknown
	}
}

// CleanText trims the value and collapses inner runs of whitespace.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Categorical cleans a categorical cell. Blank becomes Unknown; a value that
// matches vocab case-insensitively takes the vocabulary spelling; anything
// else gets an upper-case first letter.
func Categorical(s string, vocab ...string) string {
	s = CleanText(s)
	if s == "" {
		return Unknown
	}
	if strings.EqualFold(s, Unknown) {
		return Unknown
	}
	for _, v := range vocab {
		if strings.EqualFold(s, v) {
			return v
		}
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// ParseSex maps raw sex codes onto the closed Sex set.
func ParseSex(s string) Sex {
	switch strings.ToUpper(CleanText(s)) {
	case "M", "MALE":
		return SexMale
	case "F", "FEMALE":
		return SexFemale
	case "U", "UNDETERMINED":
		return SexUndetermined
	default:
		return SexUnknown
	}
}

// ParseDistance maps raw distance labels onto the three measured buckets.
func ParseDistance(s string) DistanceBucket {
	folded := strings.ToLower(strings.Join(strings.Fields(s), ""))
	folded = strings.TrimSuffix(folded, "meters")
	folded = strings.TrimSuffix(folded, "meter")
	folded = strings.TrimSuffix(folded, "m")
	switch folded {
	case "<=50", "≤50", "<50", "0-50":
		return DistanceUpTo50
	case "50-100":
		return Distance50To100
	case ">100", "100+":
		return DistanceOver100
	default:
		return DistanceUnknown
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// excelEpoch is day zero of the 1900 date system as Excel counts it (the
// 1900 leap-year bug makes 1899-12-30 the effective origin).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Excel serials accepted as dates: 1950-01-01 through 2099-12-31.
const (
	minExcelDateSerial = 18264
	maxExcelDateSerial = 73050
)

// ParseDate parses a calendar date. It returns nil when the value is blank
// or matches no known layout.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := dateOnly(t)
			return &d
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= minExcelDateSerial && serial <= maxExcelDateSerial {
			d := excelEpoch.AddDate(0, 0, int(math.Floor(serial)))
			return &d
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseTimeOfDay parses a wall-clock time. Excel stores times as day
// fractions, so numeric input keeps only its fractional part. A whole number
// of one or more carries no time of day and yields nil.
func ParseTimeOfDay(s string) *TimeOfDay {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return &TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	whole, frac := math.Modf(f)
	if whole >= 1 && frac == 0 {
		return nil
	}
	secs := int(math.Round(frac * 86400))
	if secs >= 86400 {
		secs = 86399
	}
	return &TimeOfDay{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}
}

// parseNumber parses a float cell. Blank is (nil, true); non-numeric text is
// (nil, false).
func parseNumber(s string) (*float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return &v, true
}

// parseInteger parses an integer cell, accepting integral floats such as
// "2.0" that spreadsheets emit for numeric cells.
func parseInteger(s string) (*int, bool) {
	f, ok := parseNumber(s)
	if !ok {
		return nil, false
	}
	if f == nil {
		return nil, true
	}
	if *f != math.Trunc(*f) {
		return nil, false
	}
	n := int(*f)
	return &n, true
}
