// Package report defines the lab report data model and the append-only
// patient history repository. A LabReportRecord is created once per
// successfully analyzed upload and never mutated afterwards.
package report

// Biomarker flag values as produced by the analysis provider. Anything
// other than low/high (case-insensitive) is treated as in-range.
const (
	FlagLow  = "LOW"
	FlagHigh = "HIGH"
)

// BiomarkerReading is one named lab measurement. Immutable once the
// analysis pipeline has run: extraction fills the measurement itself, and
// the research stage attaches notes to flagged readings before the record
// is saved.
type BiomarkerReading struct {
	Name          string   `json:"name"`
	Value         float64  `json:"value"`
	Unit          string   `json:"unit,omitempty"`
	Flag          string   `json:"flag,omitempty"`
	ResearchNotes []string `json:"research_notes,omitempty"`
}

// LabReportRecord is one uploaded report after analysis. LabDate is
// reporter-supplied and may be empty; UploadedAt is always present and
// non-decreasing across a session. Both are kept in their wire form
// (ISO-8601 strings) because trend bucketing works on the YYYY-MM prefix.
type LabReportRecord struct {
	LabDate          string             `json:"lab_date,omitempty"`
	UploadedAt       string             `json:"uploaded_at"`
	OriginalFilename string             `json:"original_filename"`
	FileURL          string             `json:"file_url,omitempty"`
	Biomarkers       []BiomarkerReading `json:"biomarkers"`
}

// AnalysisResult is the envelope returned by the analysis step for one
// upload, before it is folded into the patient's history.
type AnalysisResult struct {
	PatientToken     string             `json:"patient"`
	OriginalFilename string             `json:"original_filename"`
	UploadedAt       string             `json:"uploaded_at"`
	LabDate          string             `json:"lab_date,omitempty"`
	FileURL          string             `json:"file_url,omitempty"`
	Biomarkers       []BiomarkerReading `json:"biomarkers"`
}

// Record converts the analysis envelope into its history record form.
func (a *AnalysisResult) Record() LabReportRecord {
	return LabReportRecord{
		LabDate:          a.LabDate,
		UploadedAt:       a.UploadedAt,
		OriginalFilename: a.OriginalFilename,
		FileURL:          a.FileURL,
		Biomarkers:       a.Biomarkers,
	}
}
