package report

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Lab reports carry their collection date in wildly inconsistent places.
// The extraction order is: labeled date in the report text, any bare date
// in the text, a date embedded in the filename, and finally nothing (the
// caller falls back to the upload time).

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var labDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Report Date|Collection Date|Collected|Sample Date|Date of Service|Report Generated|Order Date|Specimen Date|Date)\s*[:\-]?\s*([A-Za-z]{3,9}\s+\d{1,2},\s+\d{4})`),
	regexp.MustCompile(`(?i)(?:Report Date|Collection Date|Collected|Sample Date|Date of Service|Order Date|Specimen Date|Date)\s*[:\-]?\s*(\d{4}[/\-]\d{1,2}[/\-]\d{1,2})`),
	regexp.MustCompile(`(?i)(?:Report Date|Collection Date|Collected|Sample Date|Date of Service|Order Date|Specimen Date|Date)\s*[:\-]?\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})`),
	regexp.MustCompile(`\b\d{4}[/\-]\d{1,2}[/\-]\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}[/\-]\d{1,2}[/\-]\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\s+\d{1,2},\s+\d{4}\b`),
}

// parseDateString normalizes a free-form date string to ISO YYYY-MM-DD.
// Returns "" when no known format matches.
func parseDateString(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// ExtractLabDate scans report text for a collection/report date label and
// returns it as ISO YYYY-MM-DD, or "" when no usable date is found.
func ExtractLabDate(text string) string {
	for _, pat := range labDatePatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := m[0]
		if len(m) > 1 {
			candidate = m[1]
		}
		if iso := parseDateString(candidate); iso != "" {
			return iso
		}
	}
	return ""
}

var (
	filename422 = regexp.MustCompile(`\b(\d{4})[._\- ]?(\d{2})[._\- ]?(\d{2})\b`)
	filename222 = regexp.MustCompile(`\b(\d{2})[._\- ](\d{2})[._\- ](\d{2})\b`)
	filename6   = regexp.MustCompile(`\b(\d{2})(\d{2})(\d{2})\b`)
	anySix      = regexp.MustCompile(`\d{6}`)
	spaces      = regexp.MustCompile(`\s+`)
)

// ExtractDateFromFilename infers a date from the uploaded filename when the
// report text has none. Supports YYYY-MM-DD (any of ._- or space as the
// separator, or none), separated and compact DDMMYY / YYMMDD forms.
func ExtractDateFromFilename(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = spaces.ReplaceAllString(name, " ")

	if m := filename422.FindStringSubmatch(name); m != nil {
		if iso := validDate(m[1], m[2], m[3]); iso != "" {
			return iso
		}
	}
	if m := filename222.FindStringSubmatch(name); m != nil {
		if iso := twoDigitDate(m[1], m[2], m[3]); iso != "" {
			return iso
		}
	}
	if m := filename6.FindStringSubmatch(name); m != nil {
		if iso := twoDigitDate(m[1], m[2], m[3]); iso != "" {
			return iso
		}
	}
	for _, chunk := range anySix.FindAllString(name, -1) {
		if iso := twoDigitDate(chunk[0:2], chunk[2:4], chunk[4:6]); iso != "" {
			return iso
		}
	}
	return ""
}

func validDate(y, m, d string) string {
	if t, err := time.Parse("2006-01-02", y+"-"+m+"-"+d); err == nil {
		return t.Format("2006-01-02")
	}
	return ""
}

// twoDigitDate tries DDMMYY first, then YYMMDD, both with a 20xx century.
func twoDigitDate(a, b, c string) string {
	if iso := validDate("20"+c, b, a); iso != "" {
		return iso
	}
	return validDate("20"+a, b, c)
}
