package metadata

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericDateRe matches DD/MM/YYYY and the ./- separator variants,
// with 2- or 4-digit years.
var numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{2,4})\b`)

// textualDateRe matches the Portuguese long form "12 de março de 2024".
var textualDateRe = regexp.MustCompile(`\b(\d{1,2}) de (\p{L}+) de (\d{2,4})\b`)

var ptMonths = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February,
	"março": time.March, "marco": time.March,
	"abril": time.April, "maio": time.May, "junho": time.June,
	"julho": time.July, "agosto": time.August, "setembro": time.September,
	"outubro": time.October, "novembro": time.November,
	"dezembro": time.December,
}

// ExtractDate finds the first parseable date in text and returns it in
// ISO form (YYYY-MM-DD). The second return is false when no date was
// found; callers degrade to DateUnknown instead of failing.
func ExtractDate(text string) (string, bool) {
	for _, m := range numericDateRe.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if d, ok := buildDate(year, time.Month(month), day); ok {
			return d, true
		}
	}

	for _, m := range textualDateRe.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, ok := ptMonths[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		year, _ := strconv.Atoi(m[3])
		if d, ok := buildDate(year, month, day); ok {
			return d, true
		}
	}

	return "", false
}

// ParsePDFDate parses a PDF info-dictionary date ("D:YYYYMMDDHHmmSS...")
// into ISO form. Only the date part is kept.
func ParsePDFDate(raw string) (string, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "D:")
	if len(s) < 8 {
		return "", false
	}
	year, err1 := strconv.Atoi(s[0:4])
	month, err2 := strconv.Atoi(s[4:6])
	day, err3 := strconv.Atoi(s[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	return buildDate(year, time.Month(month), day)
}

// buildDate validates the components and formats them. Two-digit years
// are windowed at 50: 49 means 2049, 50 means 1950.
func buildDate(year int, month time.Month, day int) (string, bool) {
	if year < 100 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if year < 1900 || year > 2100 {
		return "", false
	}
	if month < time.January || month > time.December {
		return "", false
	}
	if day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// Reject rollovers such as 31/02.
	if d.Day() != day || d.Month() != month {
		return "", false
	}
	return d.Format("2006-01-02"), true
}
