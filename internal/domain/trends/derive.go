// Package trends derives the monthly biomarker time series the dashboard
// charts. Derivation is a pure function over the report history: it never
// fails, and malformed records are silently excluded.
package trends

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vitalboard/vitalboard/internal/domain/report"
)

// TrendPoint is one calendar month's summarized values for the two tracked
// biomarkers. A zero value means the biomarker was absent that month.
type TrendPoint struct {
	Period         string  `json:"period"`
	VitaminD       float64 `json:"vitaminD"`
	LDLCholesterol float64 `json:"ldlCholesterol"`
}

// Tracked biomarker name fragments, matched case-insensitively by substring.
const (
	MatchVitaminD = "vitamin d"
	MatchLDL      = "ldl"
)

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Period buckets a record into its calendar month. A present lab date is
// authoritative: its YYYY-MM prefix is the period, and if that prefix is
// malformed the record has no period at all. Only records without a lab
// date fall back to the upload time.
func Period(rec report.LabReportRecord) string {
	if rec.LabDate != "" {
		return monthPrefix(rec.LabDate)
	}
	return monthPrefix(rec.UploadedAt)
}

func monthPrefix(s string) string {
	if len(s) < 7 {
		return ""
	}
	if p := s[:7]; periodPattern.MatchString(p) {
		return p
	}
	return ""
}

// FindValue returns the value of the first biomarker whose name contains
// substr (case-insensitive), or 0 when none matches. First occurrence in
// the record's biomarker order is authoritative; the engine does not
// disambiguate between multiple candidates.
func FindValue(biomarkers []report.BiomarkerReading, substr string) (float64, bool) {
	for _, b := range biomarkers {
		if strings.Contains(strings.ToLower(b.Name), substr) {
			return b.Value, true
		}
	}
	return 0, false
}

// Derive converts a report history into an ordered monthly trend series.
// Records with no usable month, and points where both tracked values come
// out as the sentinel zero, are dropped: a zero cannot be told apart from
// "absent", and absence wins. The result is sorted ascending by period.
func Derive(history []report.LabReportRecord) []TrendPoint {
	var points []TrendPoint
	for _, rec := range history {
		period := Period(rec)
		if period == "" {
			continue
		}
		vitD, _ := FindValue(rec.Biomarkers, MatchVitaminD)
		ldl, _ := FindValue(rec.Biomarkers, MatchLDL)
		if vitD == 0 && ldl == 0 {
			continue
		}
		points = append(points, TrendPoint{Period: period, VitaminD: vitD, LDLCholesterol: ldl})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}
